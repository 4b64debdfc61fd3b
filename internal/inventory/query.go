package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const unitColumns = `id, tenant_id, product_id, code, status, manufactured_on, expires_on,
 customer_id, customer_name, customer_phone, attributed_at, verified, verified_at, created_at, updated_at`

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// where translates a Selection into a WHERE clause. It is the only place a
// Filter meets SQL.
func (b *sqlBuilder) where(sel Selection) string {
	conds := []string{"tenant_id = " + b.arg(sel.TenantID)}
	if sel.ProductID != uuid.Nil {
		conds = append(conds, "product_id = "+b.arg(sel.ProductID))
	}
	if sel.IDs != nil {
		conds = append(conds, "id = ANY("+b.arg(sel.IDs)+"::uuid[])")
	}
	f := sel.Filter
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "status = ANY("+b.arg(statuses)+"::text[])")
	}
	if code := strings.TrimSpace(f.Code); code != "" {
		conds = append(conds, "code ILIKE "+b.arg("%"+escapeLike(code)+"%"))
	}
	if f.Manufactured.From != nil {
		conds = append(conds, "manufactured_on >= "+b.arg(Day(*f.Manufactured.From))+"::date")
	}
	if f.Manufactured.To != nil {
		conds = append(conds, "manufactured_on <= "+b.arg(Day(*f.Manufactured.To))+"::date")
	}
	if f.constrainsExpiry() {
		expiry := []string{"expires_on IS NOT NULL"}
		if f.Expiry.From != nil {
			expiry = append(expiry, "expires_on >= "+b.arg(Day(*f.Expiry.From))+"::date")
		}
		if f.Expiry.To != nil {
			expiry = append(expiry, "expires_on <= "+b.arg(Day(*f.Expiry.To))+"::date")
		}
		switch f.ExpiryState {
		case ExpiryExpired:
			expiry = append(expiry, "expires_on < "+b.arg(Day(sel.AsOf))+"::date")
		case ExpiryNotExpired:
			expiry = append(expiry, "expires_on >= "+b.arg(Day(sel.AsOf))+"::date")
		}
		clause := "(" + strings.Join(expiry, " AND ") + ")"
		if f.IncludeNoExpiry {
			clause = "(" + clause + " OR expires_on IS NULL)"
		}
		conds = append(conds, clause)
	}
	if f.Verified != nil {
		conds = append(conds, "verified = "+b.arg(*f.Verified))
	}
	return strings.Join(conds, " AND ")
}

// set renders the assignments of ch. Postgres evaluates every right-hand side
// against the pre-update row, so the CASE sees the previous status.
func (b *sqlBuilder) set(ch Change) string {
	var sets []string
	var status string
	if ch.Status != nil {
		status = b.arg(string(*ch.Status))
		sets = append(sets, "status = "+status)
	}
	if ch.ManufacturedOn != nil {
		sets = append(sets, "manufactured_on = "+b.arg(Day(*ch.ManufacturedOn))+"::date")
	}
	if ch.ClearExpiry {
		sets = append(sets, "expires_on = NULL")
	} else if ch.ExpiresOn != nil {
		sets = append(sets, "expires_on = "+b.arg(Day(*ch.ExpiresOn))+"::date")
	}
	switch {
	case ch.Attribution != nil:
		var phone *string
		if ch.Attribution.CustomerPhone != "" {
			p := ch.Attribution.CustomerPhone
			phone = &p
		}
		sets = append(sets,
			"customer_id = "+b.arg(ch.Attribution.CustomerID),
			"customer_name = "+b.arg(ch.Attribution.CustomerName),
			"customer_phone = "+b.arg(phone),
			"attributed_at = "+b.arg(ch.Attribution.At),
		)
	case ch.ClearAttribution:
		sets = append(sets, "customer_id = NULL", "customer_name = NULL", "customer_phone = NULL", "attributed_at = NULL")
	case ch.ClearAttributionOnStatusChange && status != "":
		for _, col := range []string{"customer_id", "customer_name", "customer_phone", "attributed_at"} {
			sets = append(sets, fmt.Sprintf("%s = CASE WHEN status <> %s THEN NULL ELSE %s END", col, status, col))
		}
	}
	if ch.Verified != nil {
		sets = append(sets, "verified = "+b.arg(*ch.Verified))
		if *ch.Verified {
			sets = append(sets, "verified_at = "+b.arg(ch.At))
		} else {
			sets = append(sets, "verified_at = NULL")
		}
	}
	sets = append(sets, "updated_at = "+b.arg(ch.At))
	return strings.Join(sets, ", ")
}

func escapeLike(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
