package store

import (
	"context"
	"fmt"
	"strings"
)

// Projection is a parsed select expression such as
// "*, gate:gates(name, building:buildings(name))".
type Projection struct {
	Columns []string
	Embeds  []Embed
}

// Embed expands a related collection under Alias. Hint names the foreign key
// column when more than one relation links the two collections
// ("assignee:staff!assigned_to(full_name)").
type Embed struct {
	Alias      string
	Collection string
	Hint       string
	Projection Projection
}

func ParseSelect(expr string) (Projection, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Projection{Columns: []string{"*"}}, nil
	}
	return parseList(expr)
}

func parseList(expr string) (Projection, error) {
	parts, err := splitTopLevel(expr)
	if err != nil {
		return Projection{}, err
	}
	var proj Projection
	for _, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Projection{}, fmt.Errorf("%w: empty item in %q", ErrInvalidSelect, expr)
		}
		open := strings.IndexByte(part, '(')
		if open < 0 {
			if part != "*" && !isIdent(part) {
				return Projection{}, fmt.Errorf("%w: bad column %q", ErrInvalidSelect, part)
			}
			proj.Columns = append(proj.Columns, part)
			continue
		}
		if !strings.HasSuffix(part, ")") {
			return Projection{}, fmt.Errorf("%w: unterminated embed %q", ErrInvalidSelect, part)
		}
		embed, err := parseEmbedHead(strings.TrimSpace(part[:open]))
		if err != nil {
			return Projection{}, err
		}
		inner, err := parseList(part[open+1 : len(part)-1])
		if err != nil {
			return Projection{}, err
		}
		embed.Projection = inner
		proj.Embeds = append(proj.Embeds, embed)
	}
	return proj, nil
}

func parseEmbedHead(head string) (Embed, error) {
	var embed Embed
	target := head
	if i := strings.IndexByte(head, ':'); i >= 0 {
		embed.Alias = strings.TrimSpace(head[:i])
		target = strings.TrimSpace(head[i+1:])
	}
	if i := strings.IndexByte(target, '!'); i >= 0 {
		embed.Hint = strings.TrimSpace(target[i+1:])
		target = strings.TrimSpace(target[:i])
	}
	embed.Collection = target
	if embed.Alias == "" {
		embed.Alias = target
	}
	for _, ident := range []string{embed.Alias, embed.Collection} {
		if !isIdent(ident) {
			return Embed{}, fmt.Errorf("%w: bad embed %q", ErrInvalidSelect, head)
		}
	}
	if embed.Hint != "" && !isIdent(embed.Hint) {
		return Embed{}, fmt.Errorf("%w: bad embed hint %q", ErrInvalidSelect, head)
	}
	return embed, nil
}

func splitTopLevel(expr string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSelect, expr)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, expr[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSelect, expr)
	}
	return append(parts, expr[start:]), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Plan is a projection validated against the catalog. Columns includes the
// join keys the embeds need.
type Plan struct {
	Collection Collection
	Columns    []string
	Embeds     []EmbedPlan
}

type EmbedPlan struct {
	Alias string
	// ToOne embeds follow FK on the parent row to the target's id. Otherwise
	// FK lives on the target and points back at the parent's id.
	ToOne bool
	FK    string
	Plan  Plan
}

func (c Catalog) Plan(collection, expr string) (Plan, error) {
	coll, err := c.Lookup(collection)
	if err != nil {
		return Plan{}, err
	}
	proj, err := ParseSelect(expr)
	if err != nil {
		return Plan{}, err
	}
	return c.plan(coll, proj)
}

func (c Catalog) plan(coll Collection, proj Projection) (Plan, error) {
	plan := Plan{Collection: coll}
	seen := make(map[string]bool)
	add := func(col string) {
		if !seen[col] {
			seen[col] = true
			plan.Columns = append(plan.Columns, col)
		}
	}
	for _, col := range proj.Columns {
		if col == "*" {
			for _, all := range coll.Columns {
				add(all)
			}
			continue
		}
		if !coll.HasColumn(col) {
			return Plan{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, coll.Name, col)
		}
		add(col)
	}
	for _, embed := range proj.Embeds {
		target, err := c.Lookup(embed.Collection)
		if err != nil {
			return Plan{}, err
		}
		toOne, fk, err := c.relate(coll, target, embed.Hint)
		if err != nil {
			return Plan{}, err
		}
		sub, err := c.plan(target, embed.Projection)
		if err != nil {
			return Plan{}, err
		}
		if toOne {
			add(fk)
			sub.require("id")
		} else {
			add("id")
			sub.require(fk)
		}
		plan.Embeds = append(plan.Embeds, EmbedPlan{Alias: embed.Alias, ToOne: toOne, FK: fk, Plan: sub})
	}
	return plan, nil
}

func (p *Plan) require(col string) {
	for _, c := range p.Columns {
		if c == col {
			return
		}
	}
	p.Columns = append(p.Columns, col)
}

func (c Catalog) relate(source, target Collection, hint string) (bool, string, error) {
	if hint != "" {
		if source.References[hint] == target.Name {
			return true, hint, nil
		}
		if target.References[hint] == source.Name {
			return false, hint, nil
		}
		return false, "", fmt.Errorf("%w: %s!%s -> %s", ErrNoRelation, source.Name, hint, target.Name)
	}
	if fk, ok := c.foreignKey(source.Name, target.Name); ok {
		return true, fk, nil
	}
	if fk, ok := c.foreignKey(target.Name, source.Name); ok {
		return false, fk, nil
	}
	return false, "", fmt.Errorf("%w: %s -> %s", ErrNoRelation, source.Name, target.Name)
}

// Fetcher loads the rows of plan.Collection whose column matches one of
// values and which satisfy filters.
type Fetcher func(ctx context.Context, plan Plan, column string, values []string, filters []Eq) ([]Row, error)

// Attach resolves the plan's embeds for rows with one batched fetch per embed.
// A non-nil tenant restricts every tenant owned embedded collection to rows
// of that tenant, at any nesting depth.
func (p Plan) Attach(ctx context.Context, rows []Row, fetch Fetcher, tenant any) error {
	if len(rows) == 0 {
		return nil
	}
	for _, embed := range p.Embeds {
		if embed.ToOne {
			if err := attachParents(ctx, rows, embed, fetch, tenant); err != nil {
				return err
			}
			continue
		}
		if err := attachChildren(ctx, rows, embed, fetch, tenant); err != nil {
			return err
		}
	}
	return nil
}

func (p Plan) scope(tenant any) []Eq {
	if tenant == nil || p.Collection.TenantColumn == "" {
		return nil
	}
	return []Eq{{Column: p.Collection.TenantColumn, Value: tenant}}
}

func attachParents(ctx context.Context, rows []Row, embed EmbedPlan, fetch Fetcher, tenant any) error {
	keys := distinctKeys(rows, func(r Row) any { return r[embed.FK] })
	byID := make(map[string]Row, len(keys))
	if len(keys) > 0 {
		parents, err := fetch(ctx, embed.Plan, "id", keys, embed.Plan.scope(tenant))
		if err != nil {
			return fmt.Errorf("embed %s: %w", embed.Alias, err)
		}
		if err := embed.Plan.Attach(ctx, parents, fetch, tenant); err != nil {
			return err
		}
		for _, parent := range parents {
			byID[parent.ID()] = parent
		}
	}
	for _, row := range rows {
		if parent, ok := byID[KeyString(row[embed.FK])]; ok {
			row[embed.Alias] = parent
		} else {
			row[embed.Alias] = nil
		}
	}
	return nil
}

func attachChildren(ctx context.Context, rows []Row, embed EmbedPlan, fetch Fetcher, tenant any) error {
	ids := distinctKeys(rows, func(r Row) any { return r["id"] })
	groups := make(map[string][]Row)
	if len(ids) > 0 {
		children, err := fetch(ctx, embed.Plan, embed.FK, ids, embed.Plan.scope(tenant))
		if err != nil {
			return fmt.Errorf("embed %s: %w", embed.Alias, err)
		}
		if err := embed.Plan.Attach(ctx, children, fetch, tenant); err != nil {
			return err
		}
		for _, child := range children {
			key := KeyString(child[embed.FK])
			groups[key] = append(groups[key], child)
		}
	}
	for _, row := range rows {
		group := groups[row.ID()]
		if group == nil {
			group = []Row{}
		}
		row[embed.Alias] = group
	}
	return nil
}

func distinctKeys(rows []Row, get func(Row) any) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		key := KeyString(get(row))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// KeyString renders an identifier value for comparison across stores.
func KeyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
