package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		user, pass string
		want       string
	}{
		{
			name: "native dsn untouched",
			in:   "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true",
			want: "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true",
		},
		{
			name: "jdbc url",
			in:   "jdbc:mysql://db:3306/app?useSSL=false&characterEncoding=utf8",
			user: "svc", pass: "secret",
			want: "svc:secret@tcp(db:3306)/app?charset=utf8&parseTime=true&tls=false",
		},
		{
			name: "credentials from url",
			in:   "mysql://a:b@db:3306/app",
			want: "a:b@tcp(db:3306)/app?charset=utf8mb4&parseTime=true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db:3306)/app", MaskDSN("root:pw@tcp(db:3306)/app"))
	assert.Equal(t, "file::memory:", MaskDSN("file::memory:"))
}

func TestNewGormRejectsUnknownDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}

func TestNewGormSQLiteMigrates(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: "file:migrate_test?mode=memory&cache=shared", MaxOpenConns: 1, MaxIdleConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"users", "snippets", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
