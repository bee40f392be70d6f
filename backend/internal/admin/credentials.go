package admin

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

// Email domains of generated accounts
const (
	StudentEmailDomain = "student.univ.ma"
	TeacherEmailDomain = "univ.ma"
)

const (
	maxEmailSuffix = 10000
	minWait        = time.Nanosecond
)

var errCredentialsTaken = errors.New("generated credentials already in use")

// Credentials is one candidate login for an admin-created account
type Credentials struct {
	ExternalID string
	Email      string
}

// TakenFunc reports whether a value is already used by another account
type TakenFunc func(ctx context.Context, value string) (bool, error)

// CredentialGenerator derives an email and external id from a name and
// checks both against the store before use. A taken email moves on to the
// next numeric suffix; id collisions and insert races are retried a bounded
// number of times.
type CredentialGenerator struct {
	attempts int
	year     func() int
	randn    func(n int) int
	wait     time.Duration
}

// NewCredentialGenerator creates a generator allowing attempts tries per account
func NewCredentialGenerator(attempts int) *CredentialGenerator {
	if attempts < 1 {
		attempts = 1
	}
	return &CredentialGenerator{
		attempts: attempts,
		year:     func() int { return time.Now().Year() },
		randn:    rand.IntN,
		wait:     5 * time.Millisecond,
	}
}

// Issue generates candidates for name until create accepts one. create
// should return store.ErrDuplicate when a unique index rejects the insert.
func (g *CredentialGenerator) Issue(
	ctx context.Context,
	role shared.Role,
	name string,
	emailTaken, idTaken TakenFunc,
	create func(ctx context.Context, c Credentials) error,
) (Credentials, error) {
	prefix, domain := "S", StudentEmailDomain
	if role == shared.RoleTeacher {
		prefix, domain = "T", TeacherEmailDomain
	}
	local := EmailLocalPart(name)
	if local == "" {
		return Credentials{}, shared.NewValidationError("name is required")
	}

	var (
		issued Credentials
		suffix = 1
	)
	err := retry.Do(ctx, g.backoff(), func(ctx context.Context) error {
		email, next, err := firstFreeEmail(ctx, local, domain, suffix, emailTaken)
		if err != nil {
			return err
		}
		suffix = next

		c := Credentials{
			ExternalID: fmt.Sprintf("%s%d%03d", prefix, g.year(), g.randn(1000)),
			Email:      email,
		}
		taken, err := idTaken(ctx, c.ExternalID)
		if err != nil {
			return err
		}
		if taken {
			return retry.RetryableError(errCredentialsTaken)
		}

		if err := create(ctx, c); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return retry.RetryableError(errCredentialsTaken)
			}
			return err
		}
		issued = c
		return nil
	})

	if errors.Is(err, errCredentialsTaken) {
		return Credentials{}, shared.NewConflictError("Could not generate unique credentials, try again")
	}
	if err != nil {
		return Credentials{}, err
	}
	return issued, nil
}

// backoff bounds retries to the configured attempts. The wait never drops
// to zero since go-retry rejects non-positive intervals.
func (g *CredentialGenerator) backoff() retry.Backoff {
	wait := g.wait
	if wait < minWait {
		wait = minWait
	}
	return retry.WithMaxRetries(uint64(g.attempts-1), retry.NewConstant(wait))
}

// firstFreeEmail walks suffixes upward from start until emailTaken reports a
// free address. Suffix probing does not consume retry attempts.
func firstFreeEmail(ctx context.Context, local, domain string, start int, emailTaken TakenFunc) (string, int, error) {
	for suffix := start; suffix <= maxEmailSuffix; suffix++ {
		email := candidateEmail(local, suffix, domain)
		taken, err := emailTaken(ctx, email)
		if err != nil {
			return "", suffix, err
		}
		if !taken {
			return email, suffix, nil
		}
	}
	return "", start, shared.NewConflictError("No free email address left for this name")
}

// EmailLocalPart lowercases name and joins its words with dots
func EmailLocalPart(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), ".")
}

func candidateEmail(local string, suffix int, domain string) string {
	if suffix > 1 {
		return fmt.Sprintf("%s%d@%s", local, suffix, domain)
	}
	return local + "@" + domain
}
