package httpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

// StaticTokenVerifier maps pre-shared bearer tokens to principals. Real
// authentication lives outside this service; the chapter hands tokens to the
// admin, referee laptop and team leaders out of band.
type StaticTokenVerifier struct {
	principals map[string]user.Principal
}

func NewStaticTokenVerifier(principals map[string]user.Principal) *StaticTokenVerifier {
	cloned := make(map[string]user.Principal, len(principals))
	for token, principal := range principals {
		cloned[token] = principal
	}
	return &StaticTokenVerifier{principals: cloned}
}

func (v *StaticTokenVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	principal, ok := v.principals[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown access token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

// ParseStaticTokens parses "token:userID:role[:name]" entries separated by
// commas, the format AUTH_STATIC_TOKENS uses.
func ParseStaticTokens(raw string) (map[string]user.Principal, error) {
	principals := make(map[string]user.Principal)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid static token entry %q: want token:userID:role[:name]", entry)
		}
		token := strings.TrimSpace(parts[0])
		userID := strings.TrimSpace(parts[1])
		role, err := user.ParseRole(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid static token entry %q: %w", entry, err)
		}
		if token == "" || userID == "" {
			return nil, fmt.Errorf("invalid static token entry %q: token and user id are required", entry)
		}

		principal := user.Principal{UserID: userID, Role: role}
		if len(parts) == 4 {
			principal.Name = strings.TrimSpace(parts[3])
		}
		principals[token] = principal
	}

	return principals, nil
}
