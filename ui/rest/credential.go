package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	domainCredential "github.com/janushq/janus/domains/credential"
	"github.com/janushq/janus/pkg/utils"
)

type Credential struct {
	Service domainCredential.ICredentialUsecase
}

func InitRestCredential(app fiber.Router, service domainCredential.ICredentialUsecase) Credential {
	rest := Credential{Service: service}
	app.Get("/credentials", rest.ListCredentials)
	app.Post("/credentials", rest.CreateCredential)
	app.Get("/credentials/:id", rest.GetCredential)
	app.Put("/credentials/:id", rest.UpdateCredential)
	app.Delete("/credentials/:id", rest.DeleteCredential)
	app.Post("/credentials/:id/validate", rest.ValidateCredential)
	return rest
}

func (h *Credential) ListCredentials(c *fiber.Ctx) error {
	kindParam := strings.TrimSpace(c.Query("kind"))
	var kindPtr *domainCredential.Kind
	if kindParam != "" {
		k := domainCredential.Kind(kindParam)
		kindPtr = &k
	}

	creds, err := h.Service.List(c.UserContext(), kindPtr)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Credentials fetched",
		Results: creds,
	})
}

func (h *Credential) CreateCredential(c *fiber.Ctx) error {
	var req domainCredential.CreateCredentialRequest
	err := c.BodyParser(&req)
	utils.PanicIfNeeded(err)

	cred, err := h.Service.Create(c.UserContext(), req)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Credential created",
		Results: cred,
	})
}

func (h *Credential) GetCredential(c *fiber.Ctx) error {
	cred, err := h.Service.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Credential fetched",
		Results: cred,
	})
}

func (h *Credential) UpdateCredential(c *fiber.Ctx) error {
	var req domainCredential.UpdateCredentialRequest
	err := c.BodyParser(&req)
	utils.PanicIfNeeded(err)

	cred, err := h.Service.Update(c.UserContext(), c.Params("id"), req)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Credential updated",
		Results: cred,
	})
}

func (h *Credential) DeleteCredential(c *fiber.Ctx) error {
	err := h.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Credential deleted",
	})
}

// ValidateCredential pings the provider behind the stored key.
func (h *Credential) ValidateCredential(c *fiber.Ctx) error {
	if err := h.Service.Validate(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(502).JSON(utils.ResponseData{
			Status:  502,
			Code:    "UPSTREAM_ERROR",
			Message: err.Error(),
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Credential validated against provider",
	})
}
