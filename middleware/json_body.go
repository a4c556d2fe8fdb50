package middleware

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/segmentio/encoding/json"
	"github.com/slimloans/rigging/errors"
)

const (
	JSONMediaType = "application/json"

	// jsonArrayKey holds non object JSON bodies in the form params
	jsonArrayKey = "_json"
)

type contextKeyT string

const formParamsKey contextKeyT = "rigging.form_params"

// BodyErrorHandler responds to a request whose body could not be parsed
type BodyErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// JSONBody parses application/json request bodies into the request form
// params (see FormParams). Malformed bodies are answered with a 400 and
// never reach next.
func JSONBody(next http.Handler) http.Handler {
	return JSONBodyWithErrorHandler(defaultBodyError)(next)
}

// JSONBodyWithErrorHandler is JSONBody with a custom malformed body response
func JSONBodyWithErrorHandler(onError BodyErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultBodyError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isJSON(r) || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				onError(w, r, errors.WrapMalformedBody(err))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			if len(body) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			var parsed interface{}
			if err := json.Unmarshal(body, &parsed); err != nil {
				onError(w, r, errors.WrapMalformedBody(err))
				return
			}

			params, ok := parsed.(map[string]interface{})
			if !ok {
				params = map[string]interface{}{jsonArrayKey: parsed}
			}

			r = r.WithContext(context.WithValue(r.Context(), formParamsKey, params))

			form := r.URL.Query()
			post := url.Values{}
			for key, value := range params {
				if str, ok := scalarString(value); ok {
					form.Set(key, str)
					post.Set(key, str)
				}
			}
			r.Form, r.PostForm = form, post

			next.ServeHTTP(w, r)
		})
	}
}

// FormParams returns the params parsed from a JSON body, nil when the
// request carried none
func FormParams(r *http.Request) map[string]interface{} {
	if params, ok := r.Context().Value(formParamsKey).(map[string]interface{}); ok {
		return params
	}
	return nil
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == JSONMediaType
}

func scalarString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func defaultBodyError(w http.ResponseWriter, r *http.Request, err error) {
	Logger(r).WithFields(errors.Unwrap(err).ToLogFields()).Warn("malformed request body")

	http.Error(w, err.Error(), errors.StatusCode(err))
}
