package controller

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/web/entity"
)

// Bodies come either urlencoded with bracket keys (listing[title],
// listing[image][url]) or as JSON ({"listing": {"title": ...}}). Both shapes
// bind to the same typed forms and absent fields stay nil so the validator
// reports them.

func isJSONBody(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON
}

// decodeJSONObject reads the body and returns the object stored under key.
// A missing key yields nil.
func decodeJSONObject(c *gin.Context, key string) (map[string]any, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, common.NewUnexpectedError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, common.NewValidationError("Invalid JSON body")
	}
	raw, ok := root[key]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, common.NewValidationError(fmt.Sprintf("%q must be of type object", key))
	}
	return obj, nil
}

// textField reads a string value. Anything else is a validation error.
func textField(obj map[string]any, key string) (*string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, common.NewValidationError(fmt.Sprintf("%q must be a string", key))
	}
	return &s, nil
}

// numberField accepts a JSON number or a numeric string and keeps the text
// form for the validator.
func numberField(obj map[string]any, key string) (*string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case json.Number:
		s := v.String()
		return &s, nil
	case string:
		return &v, nil
	}
	return nil, common.NewValidationError(fmt.Sprintf("%q must be a number", key))
}

func formField(c *gin.Context, key string) *string {
	values, ok := c.Request.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func hasFormPrefix(c *gin.Context, prefix string) bool {
	for key := range c.Request.PostForm {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func parseForm(c *gin.Context) error {
	if err := c.Request.ParseForm(); err != nil {
		return common.NewValidationError("Invalid form body")
	}
	return nil
}

// bindListing reads the "listing" payload. A nil form means the payload was
// absent altogether.
func bindListing(c *gin.Context) (*entity.ListingForm, error) {
	if isJSONBody(c) {
		obj, err := decodeJSONObject(c, "listing")
		if err != nil || obj == nil {
			return nil, err
		}
		return listingFromJSON(obj)
	}

	if err := parseForm(c); err != nil {
		return nil, err
	}
	if !hasFormPrefix(c, "listing[") {
		return nil, nil
	}
	form := &entity.ListingForm{
		Title:       formField(c, "listing[title]"),
		Description: formField(c, "listing[description]"),
		Location:    formField(c, "listing[location]"),
		Country:     formField(c, "listing[country]"),
		Price:       formField(c, "listing[price]"),
	}
	if hasFormPrefix(c, "listing[image]") {
		form.Image = &entity.ImageForm{}
		if url := formField(c, "listing[image][url]"); url != nil {
			form.Image.URL = *url
		}
		if filename := formField(c, "listing[image][filename]"); filename != nil {
			form.Image.Filename = *filename
		}
	}
	return form, nil
}

func listingFromJSON(obj map[string]any) (*entity.ListingForm, error) {
	form := &entity.ListingForm{}
	var errs []error
	collect := func(dst **string, key string, read func(map[string]any, string) (*string, error)) {
		v, err := read(obj, key)
		*dst = v
		errs = append(errs, err)
	}
	collect(&form.Title, "title", textField)
	collect(&form.Description, "description", textField)
	collect(&form.Location, "location", textField)
	collect(&form.Country, "country", textField)
	collect(&form.Price, "price", numberField)
	if err := firstError(errs); err != nil {
		return nil, err
	}

	raw, ok := obj["image"]
	if !ok || raw == nil {
		return form, nil
	}
	image, ok := raw.(map[string]any)
	if !ok {
		return nil, common.NewValidationError(`"image" must be of type object`)
	}
	url, err := textField(image, "url")
	if err != nil {
		return nil, err
	}
	filename, err := textField(image, "filename")
	if err != nil {
		return nil, err
	}
	form.Image = &entity.ImageForm{}
	if url != nil {
		form.Image.URL = *url
	}
	if filename != nil {
		form.Image.Filename = *filename
	}
	return form, nil
}

// bindReview reads the "review" payload the same way as bindListing.
func bindReview(c *gin.Context) (*entity.ReviewForm, error) {
	if isJSONBody(c) {
		obj, err := decodeJSONObject(c, "review")
		if err != nil || obj == nil {
			return nil, err
		}
		comment, err := textField(obj, "comment")
		if err != nil {
			return nil, err
		}
		rating, err := numberField(obj, "rating")
		if err != nil {
			return nil, err
		}
		return &entity.ReviewForm{Comment: comment, Rating: rating}, nil
	}

	if err := parseForm(c); err != nil {
		return nil, err
	}
	if !hasFormPrefix(c, "review[") {
		return nil, nil
	}
	return &entity.ReviewForm{
		Comment: formField(c, "review[comment]"),
		Rating:  formField(c, "review[rating]"),
	}, nil
}

// bindCredentials binds the signup and login bodies, which are flat.
func bindCredentials(c *gin.Context, form any) error {
	if err := c.ShouldBind(form); err != nil {
		return common.NewValidationError("Invalid request body")
	}
	return nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
