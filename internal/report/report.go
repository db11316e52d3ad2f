// Package report holds the per-device result of a run.
package report

import (
	"strings"

	dm "github.com/andrej220/netaudit/pkg/shared-models"
)

const (
	FieldHostname = "hostname"
	Delimiter     = "|"
)

// Group is an ordered set of scalar values reported under one field.
type Group struct {
	keys   []string
	values map[string]string
}

func NewGroup() *Group {
	return &Group{values: make(map[string]string)}
}

// Set adds or replaces a value, keeping the position of the first insert.
func (g *Group) Set(key, value string) *Group {
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] = value
	return g
}

func (g *Group) Get(key string) (string, bool) {
	v, ok := g.values[key]
	return v, ok
}

func (g *Group) Keys() []string {
	return append([]string(nil), g.keys...)
}

type value struct {
	scalar string
	group  *Group
}

// Report maps field names to values in insertion order. It always starts
// with the hostname field. A Report belongs to one device run and is not
// safe for concurrent use.
type Report struct {
	keys   []string
	values map[string]value
}

func New(hostname string) *Report {
	r := &Report{values: make(map[string]value)}
	r.Set(FieldHostname, hostname)
	return r
}

func (r *Report) Set(field, v string) {
	r.put(field, value{scalar: v})
}

func (r *Report) SetGroup(field string, g *Group) {
	r.put(field, value{group: g})
}

func (r *Report) put(field string, v value) {
	if _, ok := r.values[field]; !ok {
		r.keys = append(r.keys, field)
	}
	r.values[field] = v
}

func (r *Report) Hostname() string {
	return r.values[FieldHostname].scalar
}

// Get returns a scalar field.
func (r *Report) Get(field string) (string, bool) {
	v, ok := r.values[field]
	if !ok || v.group != nil {
		return "", false
	}
	return v.scalar, true
}

func (r *Report) Group(field string) (*Group, bool) {
	v, ok := r.values[field]
	if !ok || v.group == nil {
		return nil, false
	}
	return v.group, true
}

func (r *Report) Fields() []string {
	return append([]string(nil), r.keys...)
}

// Values lists every scalar in insertion order, expanding groups in place.
func (r *Report) Values() []string {
	out := make([]string, 0, len(r.keys))
	for _, k := range r.keys {
		v := r.values[k]
		if v.group == nil {
			out = append(out, v.scalar)
			continue
		}
		for _, gk := range v.group.keys {
			out = append(out, v.group.values[gk])
		}
	}
	return out
}

// Line renders the report as pipe-delimited values without field names.
func (r *Report) Line() string {
	return strings.Join(r.Values(), Delimiter)
}

// Model converts the report into the ordered form used by result sinks.
func (r *Report) Model() []dm.ReportField {
	out := make([]dm.ReportField, 0, len(r.keys))
	for _, k := range r.keys {
		v := r.values[k]
		if v.group == nil {
			out = append(out, dm.ReportField{Name: k, Value: v.scalar})
			continue
		}
		f := dm.ReportField{Name: k}
		for _, gk := range v.group.keys {
			f.Fields = append(f.Fields, dm.ReportField{Name: gk, Value: v.group.values[gk]})
		}
		out = append(out, f)
	}
	return out
}
