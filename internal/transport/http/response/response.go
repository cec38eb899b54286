package response

type Resp struct {
	Code   int               `json:"code"`
	Msg    string            `json:"msg"`
	Data   interface{}       `json:"data"`
	Errors map[string]string `json:"errors,omitempty"` // 字段级校验错误
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// Invalid 校验失败，附带字段明细
func Invalid(msg string, fields map[string]string) Resp {
	r := Error(CodeBadRequest, msg)
	r.Errors = fields
	return r
}

// Page 列表统一结构
type Page[T any] struct {
	Count   int64 `json:"count"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	Results []T   `json:"results"`
}
