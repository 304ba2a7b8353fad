package checks

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"ozzus/agent-watch/internal/domain"
)

// ExtractValue returns the value of the first line of the form KEY=value.
// The value is trimmed of surrounding whitespace.
func ExtractValue(content, key string) (string, bool) {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `=(.*)$`)

	matches := re.FindStringSubmatch(content)
	if len(matches) != 2 {
		return "", false
	}

	return strings.TrimSpace(matches[1]), true
}

type CredentialChecker struct {
	fs           afero.Fs
	path         string
	minAuthToken int
	minCT0       int
	log          *slog.Logger
}

func NewCredentialChecker(fs afero.Fs, path string, minAuthToken, minCT0 int, log *slog.Logger) *CredentialChecker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if minAuthToken <= 0 {
		minAuthToken = 30
	}
	if minCT0 <= 0 {
		minCT0 = 50
	}

	return &CredentialChecker{
		fs:           fs,
		path:         path,
		minAuthToken: minAuthToken,
		minCT0:       minCT0,
		log:          componentLogger(log, domain.CheckTypeCredentials),
	}
}

func (c *CredentialChecker) Check(_ context.Context) domain.CheckResult {
	raw, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		c.log.Error("credentials file unreadable", "path", c.path, "error", err.Error())
		return failure(domain.CheckTypeCredentials, domain.ReasonReadError,
			fmt.Errorf("read credentials file: %w", err),
			map[string]interface{}{"path": c.path})
	}

	content := string(raw)
	authToken, hasAuth := ExtractValue(content, domain.KeyAuthToken)
	ct0, hasCT0 := ExtractValue(content, domain.KeyCT0)

	// Пустое значение считаем отсутствующим
	var missing []string
	if !hasAuth || authToken == "" {
		missing = append(missing, domain.KeyAuthToken)
	}
	if !hasCT0 || ct0 == "" {
		missing = append(missing, domain.KeyCT0)
	}

	if len(missing) > 0 {
		c.log.Error("credentials missing", "keys", strings.Join(missing, ","))
		return failure(domain.CheckTypeCredentials, domain.ReasonMissing, nil,
			map[string]interface{}{"missing": missing})
	}

	if len(authToken) < c.minAuthToken {
		c.log.Warn("auth_token too short", "length", len(authToken), "min", c.minAuthToken)
		return failure(domain.CheckTypeCredentials, domain.ReasonAuthTokenShort, nil,
			map[string]interface{}{"length": len(authToken), "min": c.minAuthToken})
	}

	if len(ct0) < c.minCT0 {
		c.log.Warn("ct0 too short", "length", len(ct0), "min", c.minCT0)
		return failure(domain.CheckTypeCredentials, domain.ReasonCT0Short, nil,
			map[string]interface{}{"length": len(ct0), "min": c.minCT0})
	}

	c.log.Info("credentials valid")
	return success(domain.CheckTypeCredentials, nil)
}

func (c *CredentialChecker) Type() domain.CheckType {
	return domain.CheckTypeCredentials
}
