package router

import (
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// RequestValidator checks incoming API requests against the OpenAPI
// document before they reach a handler.
type RequestValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// LoadSpec loads and validates the OpenAPI document at path.
func LoadSpec(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

func NewRequestValidator(path string) (*RequestValidator, error) {
	doc, err := LoadSpec(path)
	if err != nil {
		return nil, err
	}
	r, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &RequestValidator{doc: doc, router: r}, nil
}

// Handler returns the fiber middleware. Paths the document does not
// describe pass through untouched.
func (v *RequestValidator) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := adaptor.ConvertRequest(c, false)
		if err != nil {
			return err
		}

		route, pathParams, err := v.router.FindRoute(req)
		if err != nil {
			if errors.Is(err, routers.ErrPathNotFound) {
				return c.Next()
			}
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
				"code":    "invalid_request",
				"message": err.Error(),
			})
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(c.UserContext(), input); err != nil {
			log.Debugf("[Router] Rejected %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "invalid_request",
				"message": err.Error(),
			})
		}
		return c.Next()
	}
}
