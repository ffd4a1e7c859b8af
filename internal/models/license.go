package models

import "time"

// License - запись журнала об успешной активации лицензионного ключа.
// Создаётся ровно один раз на пару (ключ, пользователь).
type License struct {
	ID          int64     `json:"id"`
	LicenseKey  string    `json:"license_key"`
	CreatedAt   time.Time `json:"created_at"`   // Дата создания ключа у провайдера
	ActivatedAt time.Time `json:"activated_at"` // Дата активации у провайдера
	PlanName    string    `json:"plan_name"`
	Price       int64     `json:"price"` // Цена в центах, как её отдаёт провайдер
	UserUID     string    `json:"user_uid"`
}

// ActivationRequest - входящий запрос на активацию ключа.
type ActivationRequest struct {
	LicenseKey   string `json:"license_key" validate:"required,max=256"`
	InstanceName string `json:"instance_name" validate:"required,max=128"`
}
