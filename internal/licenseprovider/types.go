package licenseprovider

import (
	"strconv"
	"time"
)

// PlanRecord - вариант (тарифный план) из каталога провайдера.
type PlanRecord struct {
	ID    string
	Name  string
	Price int64 // Цена в центах
}

// ValidateResult - результат проверки ключа. Valid=false - штатный ответ, а не ошибка.
type ValidateResult struct {
	Valid     bool
	PlanID    string
	CreatedAt time.Time
	KeyEcho   string
	Error     string
}

// ActivateResult - результат активации ключа на экземпляре.
type ActivateResult struct {
	Activated   bool
	ActivatedAt time.Time
	InstanceID  string
	Error       string
}

// variantsResponse - страница каталога в формате JSON:API.
type variantsResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name  string `json:"name"`
			Price int64  `json:"price"`
		} `json:"attributes"`
	} `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type licenseKeyRequest struct {
	LicenseKey   string `json:"license_key"`
	InstanceName string `json:"instance_name,omitempty"`
}

type licenseKeyObject struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

type instanceObject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type licenseMeta struct {
	VariantID   variantID `json:"variant_id"`
	VariantName string    `json:"variant_name"`
	ProductName string    `json:"product_name"`
}

// variantID принимает идентификатор варианта и числом, и строкой.
type variantID string

func (v *variantID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*v = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		*v = variantID(unquoted)
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return err
	}
	*v = variantID(s)
	return nil
}

type validateResponse struct {
	Valid      bool              `json:"valid"`
	Error      *string           `json:"error"`
	LicenseKey *licenseKeyObject `json:"license_key"`
	Meta       *licenseMeta      `json:"meta"`
}

type activateResponse struct {
	Activated  bool              `json:"activated"`
	Error      *string           `json:"error"`
	LicenseKey *licenseKeyObject `json:"license_key"`
	Instance   *instanceObject   `json:"instance"`
	Meta       *licenseMeta      `json:"meta"`
}
