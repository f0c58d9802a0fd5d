package httputil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GetRequiredQueryParameters reads the given query parameters and returns
// them as a map, plus a logger annotated with each value. If any parameter
// is missing or blank, it writes a 400 with the missing names into the
// ResponseWriter and returns false.
func GetRequiredQueryParameters(w http.ResponseWriter, r *http.Request, paramKeys ...string) (map[string]string, zerolog.Logger, bool) {
	params := make(map[string]string, len(paramKeys))
	logger := log.With()
	var missing []string
	for _, key := range paramKeys {
		value := r.URL.Query().Get(key)
		if value == "" {
			missing = append(missing, key)
			continue
		}
		params[key] = value
		logger = logger.Str(key, value)
	}
	if len(missing) > 0 {
		http.Error(w, fmt.Sprintf("expected query parameters: %s", strings.Join(missing, ", ")), http.StatusBadRequest)
		return nil, zerolog.Nop(), false
	}
	return params, logger.Logger(), true
}
