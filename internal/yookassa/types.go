package yookassa

import "time"

// Amount представляет денежную сумму.
type Amount struct {
	Value    string `json:"value"`    // сумма, например "2999.00"
	Currency string `json:"currency"` // валюта, например "RUB"
}

// Confirmation описывает способ подтверждения платежа пользователем.
// Для сценария бота используется redirect на страницу оплаты.
type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// ReceiptCustomer данные покупателя для чека.
type ReceiptCustomer struct {
	Email string `json:"email"`
}

// ReceiptItem позиция чека.
type ReceiptItem struct {
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	Amount         Amount `json:"amount"`
	VatCode        int    `json:"vat_code"`
	PaymentSubject string `json:"payment_subject"`
	PaymentMode    string `json:"payment_mode"`
}

// Receipt чек для отправки покупателю на email.
type Receipt struct {
	Customer ReceiptCustomer `json:"customer"`
	Items    []ReceiptItem   `json:"items"`
}

// CreatePaymentRequest представляет запрос на создание платежа.
type CreatePaymentRequest struct {
	Amount       Amount        `json:"amount"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Capture      bool          `json:"capture"`
	Description  string        `json:"description,omitempty"`
	ExpiresAt    string        `json:"expires_at,omitempty"` // RFC3339
	Receipt      *Receipt      `json:"receipt,omitempty"`
}

// PaymentMethod платежный метод, которым был оплачен платеж.
type PaymentMethod struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Saved bool   `json:"saved"`
}

// Payment представляет платеж в ЮKassa.
type Payment struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"` // pending, waiting_for_capture, succeeded, canceled
	Amount        Amount         `json:"amount"`
	Confirmation  *Confirmation  `json:"confirmation,omitempty"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
