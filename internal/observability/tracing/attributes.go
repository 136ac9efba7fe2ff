package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Span attributes whose keys match any of these fragments never leave the
// process. PINs and phone numbers are the sensitive payloads on the scan and
// activation paths.
var redactedKeyFragments = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"authorization",
	"pin",
	"phone",
}

func redactAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	safe := attrs[:0]
	for _, attr := range attrs {
		if redactedKey(string(attr.Key)) {
			continue
		}
		safe = append(safe, attr)
	}
	return safe
}

// redactError keeps only the error's type so wrapped messages cannot leak
// upstream response bodies into spans.
func redactError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%T", err)
}

func redactedKey(key string) bool {
	key = strings.ToLower(key)
	for _, fragment := range redactedKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}
