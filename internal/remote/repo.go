package remote

import (
	"regexp"
	"strings"
)

var repoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://[^/]+/([\w.-]+)/([\w.-]+?)(?:\.git)?/?$`),
	regexp.MustCompile(`^git@[^:]+:([\w.-]+)/([\w.-]+?)(?:\.git)?$`),
	regexp.MustCompile(`^([\w.-]+)/([\w.-]+?)(?:\.git)?$`),
}

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository accepts https, ssh and short owner/repo forms.
func ParseRepository(raw string) (Repository, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repository{}, ErrMissingRepository
	}
	for _, re := range repoPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return Repository{Owner: m[1], Name: m[2]}, nil
		}
	}
	return Repository{}, ErrInvalidRepository
}

// CheckToken validates the token shape without contacting GitHub.
func CheckToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}
	if !strings.HasPrefix(token, "ghp_") && !strings.HasPrefix(token, "github_pat_") {
		return ErrMalformedToken
	}
	return nil
}
