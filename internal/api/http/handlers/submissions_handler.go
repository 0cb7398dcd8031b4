package handlers

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/herobudget/notification-service/internal/api/dto"
	"github.com/herobudget/notification-service/internal/domain"
	"github.com/herobudget/notification-service/internal/observability"
	"github.com/herobudget/notification-service/internal/service"
	"github.com/herobudget/notification-service/internal/validation"
	apperrors "github.com/herobudget/notification-service/pkg/util/errorutil"
)

// Client-facing messages. They never reveal which field or transport failed.
const (
	MsgContactAccepted    = "Mensaje enviado correctamente. Te responderemos pronto."
	MsgContactInvalid     = "Datos inválidos. Verifica que todos los campos estén completos y el email sea válido."
	MsgTicketAccepted     = "Ticket creado correctamente. Hemos enviado una confirmación a tu email."
	MsgTicketInvalid      = "Datos inválidos. Verifica que todos los campos requeridos estén completos y sean válidos."
	MsgServerError        = "Error interno del servidor. Por favor, intenta de nuevo más tarde."
	MsgPrivacyAccepted    = "Consulta de privacidad enviada exitosamente"
	MsgPrivacyMissing     = "Faltan campos requeridos"
	MsgPrivacyEmail       = "Formato de email inválido"
	MsgPrivacyPriority    = "Prioridad inválida"
	MsgPrivacyUnavailable = "Configuración de email no disponible"
	MsgPrivacyFailed      = "Error interno del servidor al enviar email"
	MsgMethodNotAllowed   = "Método no permitido"
)

// Submitter runs one submission end to end.
type Submitter interface {
	Submit(ctx context.Context, kind domain.Kind, body []byte) (*service.SubmissionReceipt, error)
}

// replies holds the wording of one endpoint.
type replies struct {
	accepted      string
	invalid       func(validation.Reason) string
	unavailable   string
	failed        string
	withSuccess   bool
	withMessageID bool
}

var endpointReplies = map[domain.Kind]replies{
	domain.KindContact: {
		accepted:    MsgContactAccepted,
		invalid:     func(validation.Reason) string { return MsgContactInvalid },
		unavailable: MsgServerError,
		failed:      MsgServerError,
		withSuccess: true,
	},
	domain.KindTicket: {
		accepted:    MsgTicketAccepted,
		invalid:     func(validation.Reason) string { return MsgTicketInvalid },
		unavailable: MsgServerError,
		failed:      MsgServerError,
		withSuccess: true,
	},
	domain.KindPrivacy: {
		accepted: MsgPrivacyAccepted,
		invalid: func(r validation.Reason) string {
			switch r {
			case validation.ReasonInvalidEmail:
				return MsgPrivacyEmail
			case validation.ReasonInvalidPriority:
				return MsgPrivacyPriority
			default:
				return MsgPrivacyMissing
			}
		},
		unavailable:   MsgPrivacyUnavailable,
		failed:        MsgPrivacyFailed,
		withMessageID: true,
	},
}

// SubmissionsHandler serves the three form endpoints.
type SubmissionsHandler struct {
	service Submitter
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSubmissionsHandler constructs handler.
func NewSubmissionsHandler(submitter Submitter, logger *zap.Logger, metrics *observability.Metrics) *SubmissionsHandler {
	return &SubmissionsHandler{service: submitter, logger: logger, metrics: metrics}
}

// Contact POST /api/contact.
func (h *SubmissionsHandler) Contact(c *fiber.Ctx) error {
	return h.handle(c, domain.KindContact)
}

// Ticket POST /api/ticket.
func (h *SubmissionsHandler) Ticket(c *fiber.Ctx) error {
	return h.handle(c, domain.KindTicket)
}

// PrivacyInquiry POST /api/send-privacy-email.
func (h *SubmissionsHandler) PrivacyInquiry(c *fiber.Ctx) error {
	return h.handle(c, domain.KindPrivacy)
}

// MethodNotAllowed answers every other method on the form paths.
func MethodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(dto.FailureResponse{Error: MsgMethodNotAllowed})
}

func (h *SubmissionsHandler) handle(c *fiber.Ctx, kind domain.Kind) (err error) {
	r := endpointReplies[kind]
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("submission handler panicked",
				zap.String("request_id", observability.RequestID(c)),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
			err = h.refuse(c, r, fiber.StatusInternalServerError, r.failed)
		}
	}()

	receipt, err := h.service.Submit(c.UserContext(), kind, c.Body())
	if err != nil {
		return h.fail(c, kind, r, err)
	}

	resp := dto.SubmissionResponse{Success: true, Message: r.accepted}
	if r.withMessageID {
		resp.MessageID = receipt.MessageID()
	}
	return c.JSON(resp)
}

func (h *SubmissionsHandler) fail(c *fiber.Ctx, kind domain.Kind, r replies, err error) error {
	domainErr := apperrors.ToDomainError(err)
	h.metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

	log := h.logger.With(
		zap.String("request_id", observability.RequestID(c)),
		zap.String("kind", string(kind)),
		zap.String("code", domainErr.Code))

	switch domainErr.Code {
	case apperrors.CodeValidationFailed:
		reason := validation.ReasonMalformedBody
		var verr *validation.Error
		if errors.As(err, &verr) {
			reason = verr.Reason
			log = log.With(zap.String("field", verr.Field))
		}
		log.Info("submission rejected", zap.String("reason", string(reason)))
		return h.refuse(c, r, fiber.StatusBadRequest, r.invalid(reason))
	case apperrors.CodeMailUnavailable:
		log.Error("submission refused, mail relay not configured", zap.Error(err))
		return h.refuse(c, r, fiber.StatusInternalServerError, r.unavailable)
	default:
		log.Error("submission failed", zap.Error(err))
		return h.refuse(c, r, fiber.StatusInternalServerError, r.failed)
	}
}

func (h *SubmissionsHandler) refuse(c *fiber.Ctx, r replies, status int, message string) error {
	resp := dto.FailureResponse{Error: message}
	if r.withSuccess {
		success := false
		resp.Success = &success
	}
	return c.Status(status).JSON(resp)
}
