package constants

const (
	// Provider events that trigger provisioning
	EventPixPaid           = "pix.paid"
	EventCardPaid          = "card.paid"
	EventPaymentApproved   = "payment.approved"
	EventCheckoutCompleted = "checkout.completed"

	// Provider payment statuses
	PaymentStatusPaid     = "paid"
	PaymentStatusApproved = "approved"

	// Status stored on the payments ledger for a settled payment
	PaymentStatusCompleted = "completed"

	// Payment Methods
	PaymentMethodPix      = "pix"
	PaymentMethodCard     = "card"
	PaymentMethodCheckout = "checkout"

	// Currencies
	CurrencyBRL = "BRL"

	// Starter profile defaults
	ProfileStartDay = 1

	// Default credential for accounts provisioned via webhook. The user is
	// prompted to change it after first login.
	DefaultUserPassword = "smoothie123"

	// Signature Headers
	HeaderSignature    = "x-signature-256"
	HeaderSignatureHub = "x-hub-signature-256"

	// Response Messages
	MsgInvalidSignature  = "Assinatura inválida"
	MsgInvalidPayload    = "Formato de payload não reconhecido"
	MsgInternalServer    = "Erro interno do servidor"
	MsgUserProvisioned   = "Usuário criado e pagamento processado com sucesso"
	MsgEventNotProcessed = "Evento não processado (não é um pagamento aprovado)"
)
