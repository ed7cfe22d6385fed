// Package solomon reads the fixed-column Solomon VRPTW text format:
// a VEHICLE section giving fleet size and truck capacity, followed by a
// CUSTOMER section listing CUST NO., XCOORD., YCOORD., DEMAND, READY TIME,
// DUE DATE, and SERVICE TIME, one depot row (customer 0) followed by every
// customer row. Grounded on original_source/instance_reader.py's column
// order and its "prolong DueDate by ServiceTime" reading of the due date as
// a hard close time for the service, not the arrival.
package solomon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cvrptw/internal/cvrp"
)

// ErrMalformed wraps every parse failure; Solomon files carry no schema
// beyond fixed column order, so any mismatch is a plain parse error, never
// SchemaInvalid (that belongs to validate.Instance, run after a Read
// succeeds).
var ErrMalformed = errors.New("solomon: malformed instance file")

// distancePrecision matches original_source/instance_reader.py's
// np.round(dists, 2): Euclidean travel time and cost are rounded to two
// decimal places.
const distancePrecision = 100.0

// Reader parses the Solomon text format into a cvrp.Instance. Zero value
// is ready to use.
type Reader struct{}

type customerRow struct {
	num     int
	x, y    float64
	demand  float64
	ready   float64
	due     float64
	service float64
}

// Read implements ingest.Reader.
func (Reader) Read(r io.Reader) (*cvrp.Instance, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}

	fleetSize, capacity, err := readVehicleSection(scanner)
	if err != nil {
		return nil, err
	}

	rows, err := readCustomerSection(scanner)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no customer rows", ErrMalformed)
	}

	nodes := make([]cvrp.Node, len(rows))
	orders := make(map[int]cvrp.Order)
	for i, row := range rows {
		node := cvrp.Node{
			Idx:         row.num,
			Lat:         row.x,
			Long:        row.y,
			Open:        row.ready,
			Close:       row.due + row.service,
			ServiceTime: row.service,
		}
		if row.num == 0 {
			node.Type = cvrp.NodeTypeDepot
		} else {
			node.Type = cvrp.NodeTypeCustomer
			orders[row.num] = cvrp.Order{NodeIdx: row.num, Weight: row.demand}
		}
		nodes[i] = node
	}

	arcs := make(map[cvrp.ArcKey]cvrp.Arc, len(rows)*(len(rows)-1))
	for _, from := range rows {
		for _, to := range rows {
			if from.num == to.num {
				continue
			}
			d := euclidean(from, to)
			arcs[cvrp.ArcKey{From: from.num, To: to.num}] = cvrp.Arc{
				From: from.num, To: to.num, TravelTime: d, Cost: d,
			}
		}
	}

	params := cvrp.DefaultParameters()
	params.FleetSize = fleetSize
	params.TruckCapacity = capacity

	return cvrp.NewInstance(nodes, arcs, orders, params), nil
}

func euclidean(a, b customerRow) float64 {
	d := math.Hypot(a.x-b.x, a.y-b.y)
	return math.Round(d*distancePrecision) / distancePrecision
}

// readVehicleSection scans forward to the VEHICLE section and returns
// fleet size and truck capacity from its value row.
func readVehicleSection(scanner *bufio.Scanner) (fleetSize int, capacity float64, err error) {
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "VEHICLE") {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}

	if !nextNonBlank(scanner) { // header row: "NUMBER CAPACITY"
		return 0, 0, fmt.Errorf("%w: missing VEHICLE header", ErrMalformed)
	}
	if !nextNonBlank(scanner) {
		return 0, 0, fmt.Errorf("%w: missing VEHICLE values", ErrMalformed)
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("%w: VEHICLE row needs NUMBER and CAPACITY", ErrMalformed)
	}
	fleetSize, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: fleet size: %v", ErrMalformed, err)
	}
	capacity, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: truck capacity: %v", ErrMalformed, err)
	}
	return fleetSize, capacity, nil
}

// readCustomerSection scans forward to the CUSTOMER section and parses
// every row through EOF, depot (CUST NO. 0) first.
func readCustomerSection(scanner *bufio.Scanner) ([]customerRow, error) {
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "CUSTOMER") {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !nextNonBlank(scanner) { // header row: CUST NO. XCOORD. ... SERVICE TIME
		return nil, fmt.Errorf("%w: missing CUSTOMER header", ErrMalformed)
	}

	var rows []customerRow
	for nextNonBlank(scanner) {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 7 {
			return nil, fmt.Errorf("%w: customer row needs 7 columns, got %d", ErrMalformed, len(fields))
		}
		row, err := parseCustomerRow(fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func parseCustomerRow(fields []string) (customerRow, error) {
	nums := make([]float64, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return customerRow{}, fmt.Errorf("%w: column %d: %v", ErrMalformed, i, err)
		}
		nums[i] = v
	}
	return customerRow{
		num:     int(nums[0]),
		x:       nums[1],
		y:       nums[2],
		demand:  nums[3],
		ready:   nums[4],
		due:     nums[5],
		service: nums[6],
	}, nil
}

// nextNonBlank advances the scanner past blank lines and reports whether a
// non-blank line was found.
func nextNonBlank(scanner *bufio.Scanner) bool {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			return true
		}
	}
	return false
}
