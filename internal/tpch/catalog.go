// Package tpch executes a fixed catalog of read-only analytical queries
// and drives concurrent query runs through the load harness.
package tpch

import "sort"

// ParamDef describes one user-tunable parameter of a catalog query.
type ParamDef struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
	Default string   `json:"default"`
}

// Query is one entry of the analytical catalog: static SQL with
// positional parameters and their defaults. Pure data, no control logic.
type Query struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Complexity    string     `json:"complexity"`
	EstimatedTime string     `json:"estimatedTime"`
	Parameters    []ParamDef `json:"parameters"`
	Defaults      []any      `json:"-"`
	SQL           string     `json:"-"`
}

// Catalog holds the supported analytical queries keyed by id.
var Catalog = map[string]Query{
	"Q1": {
		ID:            "Q1",
		Name:          "Pricing summary report",
		Description:   "Pricing summary grouped by return flag and line status",
		Complexity:    "medium",
		EstimatedTime: "2-5s",
		SQL: `
		SELECT
			l_returnflag,
			l_linestatus,
			SUM(l_quantity) as sum_qty,
			SUM(l_extendedprice) as sum_base_price,
			SUM(l_extendedprice * (1 - l_discount)) as sum_disc_price,
			SUM(l_extendedprice * (1 - l_discount) * (1 + l_tax)) as sum_charge,
			AVG(l_quantity) as avg_qty,
			AVG(l_extendedprice) as avg_price,
			AVG(l_discount) as avg_disc,
			COUNT(*) as count_order
		FROM tpc.lineitem
		WHERE l_shipdate <= DATE '1998-12-01' - INTERVAL '90 days'
		GROUP BY l_returnflag, l_linestatus
		ORDER BY l_returnflag, l_linestatus`,
	},
	"Q3": {
		ID:            "Q3",
		Name:          "Shipping priority",
		Description:   "Order revenue for a market segment before a given date",
		Complexity:    "high",
		EstimatedTime: "3-8s",
		Parameters: []ParamDef{
			{
				Name:    "segment",
				Label:   "Market segment",
				Type:    "select",
				Options: []string{"BUILDING", "AUTOMOBILE", "MACHINERY", "HOUSEHOLD", "FURNITURE"},
				Default: "BUILDING",
			},
		},
		Defaults: []any{"BUILDING", "1995-03-15"},
		SQL: `
		SELECT
			l_orderkey,
			SUM(l_extendedprice * (1 - l_discount)) as revenue,
			o_orderdate,
			o_shippriority
		FROM tpc.customer c, tpc.orders o, tpc.lineitem l
		WHERE c.c_mktsegment = $1
			AND c.c_custkey = o.o_custkey
			AND l.l_orderkey = o.o_orderkey
			AND o.o_orderdate < $2
			AND l.l_shipdate > $2
		GROUP BY l.l_orderkey, o.o_orderdate, o.o_shippriority
		ORDER BY revenue DESC, o.o_orderdate
		LIMIT 10`,
	},
	"Q5": {
		ID:            "Q5",
		Name:          "Local supplier volume",
		Description:   "Revenue for a region within one year",
		Complexity:    "high",
		EstimatedTime: "4-10s",
		Parameters: []ParamDef{
			{
				Name:    "region",
				Label:   "Region",
				Type:    "select",
				Options: []string{"ASIA", "AMERICA", "EUROPE", "MIDDLE EAST", "AFRICA"},
				Default: "ASIA",
			},
		},
		Defaults: []any{"ASIA", "1994-01-01", "1995-01-01"},
		SQL: `
		SELECT
			n.n_name,
			SUM(l.l_extendedprice * (1 - l.l_discount)) as revenue
		FROM tpc.customer c, tpc.orders o, tpc.lineitem l, tpc.supplier s, tpc.nation n, tpc.region r
		WHERE c.c_custkey = o.o_custkey
			AND l.l_orderkey = o.o_orderkey
			AND l.l_suppkey = s.s_suppkey
			AND c.c_nationkey = s.s_nationkey
			AND s.s_nationkey = n.n_nationkey
			AND n.n_regionkey = r.r_regionkey
			AND r.r_name = $1
			AND o.o_orderdate >= $2
			AND o.o_orderdate < $3
		GROUP BY n.n_name
		ORDER BY revenue DESC`,
	},
	"Q7": {
		ID:            "Q7",
		Name:          "Volume shipping",
		Description:   "Trade volume between two nations",
		Complexity:    "high",
		EstimatedTime: "5-12s",
		Parameters: []ParamDef{
			{Name: "nation1", Label: "Nation 1", Type: "input", Default: "FRANCE"},
			{Name: "nation2", Label: "Nation 2", Type: "input", Default: "GERMANY"},
		},
		Defaults: []any{"FRANCE", "GERMANY"},
		SQL: `
		SELECT
			supp_nation,
			cust_nation,
			l_year,
			SUM(volume) as revenue
		FROM (
			SELECT
				n1.n_name as supp_nation,
				n2.n_name as cust_nation,
				EXTRACT(YEAR FROM l.l_shipdate) as l_year,
				l.l_extendedprice * (1 - l.l_discount) as volume
			FROM tpc.supplier s, tpc.lineitem l, tpc.orders o, tpc.customer c, tpc.nation n1, tpc.nation n2
			WHERE s.s_suppkey = l.l_suppkey
				AND o.o_orderkey = l.l_orderkey
				AND c.c_custkey = o.o_custkey
				AND s.s_nationkey = n1.n_nationkey
				AND c.c_nationkey = n2.n_nationkey
				AND n1.n_name = $1
				AND n2.n_name = $2
				AND l.l_shipdate BETWEEN DATE '1995-01-01' AND DATE '1996-12-31'
		) shipping
		GROUP BY supp_nation, cust_nation, l_year
		ORDER BY supp_nation, cust_nation, l_year`,
	},
	"Q10": {
		ID:            "Q10",
		Name:          "Returned item reporting",
		Description:   "Revenue lost to customers who returned items",
		Complexity:    "medium",
		EstimatedTime: "2-6s",
		SQL: `
		SELECT
			c.c_custkey,
			c.c_name,
			SUM(l.l_extendedprice * (1 - l.l_discount)) as revenue,
			c.c_acctbal,
			n.n_name,
			c.c_address,
			c.c_phone,
			c.c_comment
		FROM tpc.customer c, tpc.orders o, tpc.lineitem l, tpc.nation n
		WHERE c.c_custkey = o.o_custkey
			AND l.l_orderkey = o.o_orderkey
			AND o.o_orderdate >= DATE '1993-10-01'
			AND o.o_orderdate < DATE '1993-10-01' + INTERVAL '3 months'
			AND l.l_returnflag = 'R'
			AND c.c_nationkey = n.n_nationkey
		GROUP BY c.c_custkey, c.c_name, c.c_acctbal, c.c_phone, n.n_name, c.c_address, c.c_comment
		ORDER BY revenue DESC
		LIMIT 20`,
	},
}

// Lookup resolves a query id.
func Lookup(id string) (Query, bool) {
	q, ok := Catalog[id]
	return q, ok
}

// QueryIDs returns the catalog ids in stable order.
func QueryIDs() []string {
	ids := make([]string, 0, len(Catalog))
	for id := range Catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveParams builds the positional parameter list for a query from its
// defaults, with named overrides substituted at the position of the
// matching parameter definition.
func ResolveParams(q Query, overrides map[string]string) []any {
	if len(q.Defaults) == 0 {
		return nil
	}
	params := make([]any, len(q.Defaults))
	copy(params, q.Defaults)
	for i, def := range q.Parameters {
		if i >= len(params) {
			break
		}
		if v, ok := overrides[def.Name]; ok && v != "" {
			params[i] = v
		}
	}
	return params
}
