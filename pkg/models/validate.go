package models

import (
	"fmt"
	"strings"
)

// Validate rejects queries with missing or malformed fields. A rejected query
// never reaches a collaborator and never produces an audit record.
func (q ArbitrationQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("%w: query text required", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Jurisdiction) == "" {
		return fmt.Errorf("%w: jurisdiction required", ErrInvalidQuery)
	}
	if q.AsOfDate.IsZero() {
		return fmt.Errorf("%w: as_of_date required", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Role) == "" {
		return fmt.Errorf("%w: role required", ErrInvalidQuery)
	}
	return nil
}
