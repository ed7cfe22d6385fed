// Package csvset reads an instance laid out as a directory of four CSV
// files: nodes.csv, arcs.csv, orders.csv, and parameters.csv. Unlike the
// Solomon format's fully-connected implicit arc set, arcs here are
// explicit rows — an instance need not be a complete graph.
package csvset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"

	"cvrptw/internal/cvrp"
)

// ErrMalformed wraps every parse failure in this package.
var ErrMalformed = errors.New("csvset: malformed instance directory")

// Reader reads the four-file CSV layout from an fs.FS rooted at the
// instance directory. FS must be set before Read is called.
type Reader struct {
	// FS is the filesystem the four CSVs are read from. With a nil FS,
	// Read fails with ErrMalformed.
	FS fs.FS
}

// Read implements ingest.Reader. The io.Reader argument is unused — a
// four-file layout cannot be read from a single stream, so Read ignores
// it and reads from r.FS instead. Kept on the signature so Reader still
// satisfies ingest.Reader for callers that select a format generically.
func (r Reader) Read(_ io.Reader) (*cvrp.Instance, error) {
	if r.FS == nil {
		return nil, fmt.Errorf("%w: no filesystem configured", ErrMalformed)
	}

	nodes, depotIdx, err := r.readNodes()
	if err != nil {
		return nil, err
	}
	arcs, err := r.readArcs()
	if err != nil {
		return nil, err
	}
	orders, err := r.readOrders()
	if err != nil {
		return nil, err
	}
	params, err := r.readParameters()
	if err != nil {
		return nil, err
	}

	_ = depotIdx // resolved again by cvrp.NewInstance from node types
	return cvrp.NewInstance(nodes, arcs, orders, params), nil
}

func (r Reader) readNodes() ([]cvrp.Node, int, error) {
	records, err := readCSV(r.FS, "nodes.csv")
	if err != nil {
		return nil, -1, err
	}
	header, rows := records[0], records[1:]
	col, err := columnIndex(header, "nodes.csv",
		"idx", "lat", "long", "type", "open", "close", "service_time")
	if err != nil {
		return nil, -1, err
	}

	nodes := make([]cvrp.Node, 0, len(rows))
	depotIdx := -1
	for _, row := range rows {
		idx, err := atoi(row[col["idx"]], "nodes.csv", "idx")
		if err != nil {
			return nil, -1, err
		}
		lat, err := atof(row[col["lat"]], "nodes.csv", "lat")
		if err != nil {
			return nil, -1, err
		}
		long, err := atof(row[col["long"]], "nodes.csv", "long")
		if err != nil {
			return nil, -1, err
		}
		open, err := atof(row[col["open"]], "nodes.csv", "open")
		if err != nil {
			return nil, -1, err
		}
		close_, err := atof(row[col["close"]], "nodes.csv", "close")
		if err != nil {
			return nil, -1, err
		}
		service, err := atof(row[col["service_time"]], "nodes.csv", "service_time")
		if err != nil {
			return nil, -1, err
		}

		nodeType, err := parseNodeType(row[col["type"]])
		if err != nil {
			return nil, -1, err
		}
		if nodeType == cvrp.NodeTypeDepot {
			depotIdx = idx
		}

		nodes = append(nodes, cvrp.Node{
			Idx:         idx,
			Lat:         lat,
			Long:        long,
			Type:        nodeType,
			Open:        open,
			Close:       close_,
			ServiceTime: service,
		})
	}
	return nodes, depotIdx, nil
}

func parseNodeType(s string) (cvrp.NodeType, error) {
	switch s {
	case "depot":
		return cvrp.NodeTypeDepot, nil
	case "customer":
		return cvrp.NodeTypeCustomer, nil
	default:
		return cvrp.NodeTypeUnspecified, fmt.Errorf("%w: nodes.csv: unknown type %q", ErrMalformed, s)
	}
}

func (r Reader) readArcs() (map[cvrp.ArcKey]cvrp.Arc, error) {
	records, err := readCSV(r.FS, "arcs.csv")
	if err != nil {
		return nil, err
	}
	header, rows := records[0], records[1:]
	col, err := columnIndex(header, "arcs.csv", "from", "to", "travel_time", "cost")
	if err != nil {
		return nil, err
	}

	arcs := make(map[cvrp.ArcKey]cvrp.Arc, len(rows))
	for _, row := range rows {
		from, err := atoi(row[col["from"]], "arcs.csv", "from")
		if err != nil {
			return nil, err
		}
		to, err := atoi(row[col["to"]], "arcs.csv", "to")
		if err != nil {
			return nil, err
		}
		travel, err := atof(row[col["travel_time"]], "arcs.csv", "travel_time")
		if err != nil {
			return nil, err
		}
		cost, err := atof(row[col["cost"]], "arcs.csv", "cost")
		if err != nil {
			return nil, err
		}
		arcs[cvrp.ArcKey{From: from, To: to}] = cvrp.Arc{From: from, To: to, TravelTime: travel, Cost: cost}
	}
	return arcs, nil
}

func (r Reader) readOrders() (map[int]cvrp.Order, error) {
	records, err := readCSV(r.FS, "orders.csv")
	if err != nil {
		return nil, err
	}
	header, rows := records[0], records[1:]
	col, err := columnIndex(header, "orders.csv", "node_idx", "weight")
	if err != nil {
		return nil, err
	}

	orders := make(map[int]cvrp.Order, len(rows))
	for _, row := range rows {
		nodeIdx, err := atoi(row[col["node_idx"]], "orders.csv", "node_idx")
		if err != nil {
			return nil, err
		}
		weight, err := atof(row[col["weight"]], "orders.csv", "weight")
		if err != nil {
			return nil, err
		}
		orders[nodeIdx] = cvrp.Order{NodeIdx: nodeIdx, Weight: weight}
	}
	return orders, nil
}

// readParameters reads parameters.csv as a plain key/value table — one
// row per cvrp.Parameters field, unlike nodes/arcs/orders' one-row-per-
// entity layout. Starts from cvrp.DefaultParameters so a partial file
// still yields a usable instance; validate.Instance is where missing
// required knobs, if any, would be caught.
func (r Reader) readParameters() (cvrp.Parameters, error) {
	params := cvrp.DefaultParameters()

	records, err := readCSV(r.FS, "parameters.csv")
	if err != nil {
		return cvrp.Parameters{}, err
	}
	header, rows := records[0], records[1:]
	col, err := columnIndex(header, "parameters.csv", "key", "value")
	if err != nil {
		return cvrp.Parameters{}, err
	}

	for _, row := range rows {
		key := row[col["key"]]
		value := row[col["value"]]
		if err := setParameter(&params, key, value); err != nil {
			return cvrp.Parameters{}, err
		}
	}
	return params, nil
}

func setParameter(params *cvrp.Parameters, key, value string) error {
	switch key {
	case "truck_capacity":
		v, err := atof(value, "parameters.csv", key)
		if err != nil {
			return err
		}
		params.TruckCapacity = v
	case "fleet_size":
		v, err := atoi(value, "parameters.csv", key)
		if err != nil {
			return err
		}
		params.FleetSize = v
	case "max_solve_time":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: parameters.csv: %s: %v", ErrMalformed, key, err)
		}
		params.MaxSolveTime = d
	case "column_generation_solve_ratio":
		v, err := atof(value, "parameters.csv", key)
		if err != nil {
			return err
		}
		params.ColumnGenerationSolveRatio = v
	case "master_problem_mip_gap":
		v, err := atof(value, "parameters.csv", key)
		if err != nil {
			return err
		}
		params.MasterProblemMIPGap = v
	case "pricing_problem_mip_gap":
		v, err := atof(value, "parameters.csv", key)
		if err != nil {
			return err
		}
		params.PricingProblemMIPGap = v
	case "pricing_problem_time_limit":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: parameters.csv: %s: %v", ErrMalformed, key, err)
		}
		params.PricingProblemTimeLimit = d
	case "min_column_generation_progress":
		v, err := atof(value, "parameters.csv", key)
		if err != nil {
			return err
		}
		params.MinColumnGenerationProgress = v
	case "max_count_no_improvements":
		v, err := atoi(value, "parameters.csv", key)
		if err != nil {
			return err
		}
		params.MaxCountNoImprovements = v
	default:
		return fmt.Errorf("%w: parameters.csv: unknown key %q", ErrMalformed, key)
	}
	return nil
}

func readCSV(fsys fs.FS, name string) ([][]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: empty file", ErrMalformed, name)
	}
	return records, nil
}

// columnIndex maps each required column name to its position in header,
// failing if any is missing.
func columnIndex(header []string, file string, required ...string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	col := make(map[string]int, len(required))
	for _, name := range required {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrMalformed, file, name)
		}
		col[name] = i
	}
	return col, nil
}

func atoi(s, file, field string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s: %v", ErrMalformed, file, field, err)
	}
	return v, nil
}

func atof(s, file, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s: %v", ErrMalformed, file, field, err)
	}
	return v, nil
}
