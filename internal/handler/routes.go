package handler

import (
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Routes bundles the handlers and guards mounted under /api.
type Routes struct {
	Attempts *AttemptHandler
	Progress *ProgressHandler
	Payments *PaymentHandler
	Groups   *GroupHandler

	// Auth authenticates users; Callback authenticates the payment integration.
	Auth       fiber.Handler
	Callback   fiber.Handler
	Validation *middleware.ValidationMiddleware
}

// Register mounts every endpoint on api.
func (r Routes) Register(api fiber.Router) {
	ids := r.Validation.ValidateIDParams

	// The callback comes from the payment integration and carries no user token.
	api.Post("/payments/callback", r.Callback, r.Payments.Callback)

	tests := api.Group("/tests", r.Auth)
	tests.Post("/:test_id/start", ids("test_id"), r.Attempts.StartAttempt)
	tests.Get("/:test_id/questions", ids("test_id"), r.Attempts.GetQuestions)
	tests.Patch("/:test_id/answers/:answer_id", ids("test_id", "answer_id"), r.Attempts.SubmitAnswer)
	tests.Post("/:test_id/finish", ids("test_id"), r.Attempts.FinishAttempt)
	tests.Get("/:test_id/results", ids("test_id"), r.Attempts.ListResults)

	api.Post("/lesson-parts/:part_id/complete", r.Auth, ids("part_id"), r.Progress.CompleteLessonPart)

	payments := api.Group("/payments", r.Auth)
	payments.Post("/discount", r.Payments.QuoteDiscount)
	payments.Post("/transactions", r.Payments.CreateTransaction)
	payments.Get("/transactions/:id", ids("id"), r.Payments.GetTransaction)

	api.Post("/groups/:group_id/members", r.Auth, ids("group_id"), r.Groups.AddMember)
}
