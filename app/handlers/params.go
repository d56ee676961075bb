package handlers

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/amirphl/Tsukuyomi/app/dto"
	"github.com/amirphl/Tsukuyomi/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

var errMalformedBody = errors.New("malformed request body")

// newAttributeValidator reports failures under the json names of the fields
func newAttributeValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func isJSONBody(c fiber.Ctx) bool {
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
	return contentType == "" || strings.HasPrefix(contentType, fiber.MIMEApplicationJSON)
}

// bindRegion reads a region from a JSON body (flat, under "region" or as a
// JSON:API document) or from a urlencoded or multipart form
func bindRegion(c fiber.Ctx) (*dto.RegionRequest, error) {
	if len(c.Body()) == 0 {
		return &dto.RegionRequest{}, nil
	}
	if isJSONBody(c) {
		var body dto.RegionBody
		if err := c.Bind().JSON(&body); err != nil {
			return nil, err
		}
		return body.Attributes(), nil
	}
	var req dto.RegionRequest
	if err := c.Bind().Body(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// bindTag reads a tag from a JSON body (flat or under "tag") or from a form
func bindTag(c fiber.Ctx) (*dto.TagRequest, error) {
	if len(c.Body()) == 0 {
		return &dto.TagRequest{}, nil
	}
	if isJSONBody(c) {
		var body dto.TagBody
		if err := c.Bind().JSON(&body); err != nil {
			return nil, err
		}
		return body.Attributes(), nil
	}
	var req dto.TagRequest
	if err := c.Bind().Body(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// typeErrors turns a JSON value of the wrong type into a field error. ok is
// false for any other binding failure.
func typeErrors(err error) (models.FieldErrors, bool) {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil, false
	}
	field := typeErr.Field
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return models.FieldErrors{{Field: field, Message: models.MsgInvalid}}, true
}

// queryParams returns every query value, keeping the last of repeated keys
func queryParams(c fiber.Ctx) map[string]string {
	out := map[string]string{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		out[string(k)] = string(v)
	})
	return out
}

func errorCodeFor(message string) string {
	switch {
	case message == models.MsgBlank:
		return "blank"
	case message == models.MsgTaken:
		return "taken"
	case message == models.MsgInclusion:
		return "inclusion"
	case strings.HasPrefix(message, "is too long"):
		return "too_long"
	}
	return "invalid"
}

// fieldErrorsDocument renders validation failures as a JSON:API errors document
func fieldErrorsDocument(fe models.FieldErrors) dto.JSONAPIErrorDocument {
	doc := dto.JSONAPIErrorDocument{Errors: make([]dto.JSONAPIError, 0, len(fe))}
	for _, e := range fe {
		doc.Errors = append(doc.Errors, dto.JSONAPIError{
			Status: strconv.Itoa(fiber.StatusUnprocessableEntity),
			Code:   errorCodeFor(e.Message),
			Title:  "Invalid attribute",
			Detail: e.Field + " " + e.Message,
			Source: &dto.JSONAPIErrorSource{Pointer: "/data/attributes/" + e.Field},
		})
	}
	return doc
}

func jsonAPIError(c fiber.Ctx, status int, title, detail string) error {
	return c.Status(status).JSON(dto.JSONAPIErrorDocument{Errors: []dto.JSONAPIError{{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}}})
}
