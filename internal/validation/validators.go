package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	handlePattern  = regexp.MustCompile(`^[a-zA-Z0-9_]{1,15}$`)
	digitsPattern  = regexp.MustCompile(`^[0-9]+$`)
	postURLPattern = regexp.MustCompile(`^https?://(www\.)?(twitter\.com|x\.com)/[a-zA-Z0-9_]+/status/\d+`)
	postIDPattern  = regexp.MustCompile(`/status/(\d+)`)
)

// PostTones and PostGoals are the selectors accepted by the post generator
var (
	PostTones = []string{"smart", "funny", "punchy", "viral", "contrarian", "emotional"}
	PostGoals = []string{"replies", "clicks", "lesson", "debate", "viral"}
)

func init() {
	Validate = validator.New()

	// report json field names so errors line up with the request body
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := Validate.RegisterValidation("handle", validateHandle); err != nil {
		panic(fmt.Sprintf("failed to register handle validator: %v", err))
	}
	if err := Validate.RegisterValidation("posturl", validatePostURL); err != nil {
		panic(fmt.Sprintf("failed to register posturl validator: %v", err))
	}
}

func validateHandle(fl validator.FieldLevel) bool {
	return IsValidHandle(fl.Field().String())
}

func validatePostURL(fl validator.FieldLevel) bool {
	return IsValidPostURL(fl.Field().String())
}

// CleanHandle trims whitespace and a leading @, and lowercases the handle
func CleanHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.ToLower(handle)
}

// IsValidHandle applies the platform username rules: 1-15 of [A-Za-z0-9_], not all digits.
// A leading @ is accepted.
func IsValidHandle(handle string) bool {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	return handlePattern.MatchString(handle) && !digitsPattern.MatchString(handle)
}

// IsValidPostURL reports whether u points at a single post on twitter.com or x.com
func IsValidPostURL(u string) bool {
	return postURLPattern.MatchString(strings.TrimSpace(u))
}

// PostIDFromURL extracts the numeric post id from a status URL
func PostIDFromURL(u string) (string, bool) {
	m := postIDPattern.FindStringSubmatch(u)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// NormalizePostURL drops the query string and fragment
func NormalizePostURL(u string) string {
	u = strings.TrimSpace(u)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// FieldError names one invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a list of field errors. It implements error.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Fields returns the names of the failing fields
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Field
	}
	return out
}

// NormalizeGenerationRequest trims every text field and cleans handles in place.
func NormalizeGenerationRequest(req *models.GenerationRequest) {
	req.TargetHandle = CleanHandle(req.TargetHandle)
	req.HandleToMimic = CleanHandle(req.HandleToMimic)
	req.WritingStyleHandle = CleanHandle(req.WritingStyleHandle)
	handles := make([]string, 0, len(req.WritingStyleHandles))
	for _, h := range req.WritingStyleHandles {
		if h = CleanHandle(h); h != "" {
			handles = append(handles, h)
		}
	}
	req.WritingStyleHandles = handles

	req.Goal = SanitizeText(req.Goal)
	req.TweetURL = NormalizePostURL(req.TweetURL)
	req.PostContent = SanitizeText(req.PostContent)
	req.Context = SanitizeText(req.Context)
	req.Topic = SanitizeText(req.Topic)
	req.Tone = strings.ToLower(SanitizeText(req.Tone))
	req.TargetAudience = SanitizeText(req.TargetAudience)
	req.ThreadContent = strings.TrimSpace(req.ThreadContent)
	req.ThreadURL = NormalizePostURL(req.ThreadURL)
	req.RewriteType = strings.ToLower(strings.TrimSpace(req.RewriteType))
}

// ValidateGenerationRequest normalizes req and checks both field formats and the
// fields required by its content type. It returns nil or an Errors value.
func ValidateGenerationRequest(req *models.GenerationRequest) error {
	NormalizeGenerationRequest(req)

	var errs Errors
	if err := Validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate request: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{Field: fieldName(fe), Message: describe(fe)})
		}
	}

	require := func(field, value string) {
		if value == "" {
			errs = append(errs, FieldError{Field: field, Message: "is required"})
		}
	}
	requireOneOf := func(a, b, va, vb string) {
		if va == "" && vb == "" {
			errs = append(errs, FieldError{Field: a, Message: "either " + a + " or " + b + " is required"})
		}
	}

	switch req.ContentType {
	case models.ContentTypeDM:
		require("target_handle", req.TargetHandle)
		require("goal", req.Goal)
	case models.ContentTypeReply:
		requireOneOf("tweet_url", "post_content", req.TweetURL, req.PostContent)
	case models.ContentTypeThread:
		require("topic", req.Topic)
	case models.ContentTypePost:
		require("topic", req.Topic)
		if req.Tone != "" && !contains(PostTones, req.Tone) {
			errs = append(errs, FieldError{Field: "tone", Message: "must be one of " + strings.Join(PostTones, ", ")})
		}
		if req.Goal != "" && !contains(PostGoals, req.Goal) {
			errs = append(errs, FieldError{Field: "goal", Message: "must be one of " + strings.Join(PostGoals, ", ")})
		}
		if len(req.StyleHandles(3)) > 2 {
			errs = append(errs, FieldError{Field: "writing_style_handles", Message: "at most 2 style handles are allowed"})
		}
	case models.ContentTypePostIdeas:
		if len(req.StyleHandles(1)) == 0 {
			errs = append(errs, FieldError{Field: "writing_style_handle", Message: "is required"})
		}
	case models.ContentTypeThreadRewrite:
		requireOneOf("thread_content", "thread_url", req.ThreadContent, req.ThreadURL)
		require("rewrite_type", req.RewriteType)
		if req.RewriteType == "style-mimic" && req.HandleToMimic == "" {
			errs = append(errs, FieldError{Field: "handle_to_mimic", Message: "is required for style-mimic rewrites"})
		}
	default:
		errs = append(errs, FieldError{Field: "content_type", Message: fmt.Sprintf("unsupported content type %q", req.ContentType)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateStruct runs the struct's validate tags and returns nil or an Errors value
func ValidateStruct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	errs := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, FieldError{Field: fieldName(fe), Message: describe(fe)})
	}
	return errs
}

func fieldName(fe validator.FieldError) string {
	// WritingStyleHandles[0] is reported as writing_style_handles[0]
	if name := fe.Field(); name != "" {
		return name
	}
	return strings.ToLower(fe.StructField())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "handle":
		return "must be 1-15 letters, digits or underscores and not all digits"
	case "posturl":
		return "must be a twitter.com or x.com status URL"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
