package sweep

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteGroups writes one line per group of consecutive outcomes, each line
// holding space-separated "hits,accesses;" tuples in plan order.
func WriteGroups(w io.Writer, outcomes []Outcome) error {
	bw := bufio.NewWriter(w)

	var tuples []string
	flush := func() {
		if len(tuples) == 0 {
			return
		}
		fmt.Fprintln(bw, strings.Join(tuples, " "))
		tuples = tuples[:0]
	}

	for i, o := range outcomes {
		if i > 0 && o.Point.Group != outcomes[i-1].Point.Group {
			flush()
		}
		tuples = append(tuples, fmt.Sprintf("%d,%d;", o.Result.Hits, o.Result.Accesses))
	}
	flush()

	return bw.Flush()
}

// WriteCSV writes a header and one row per outcome.
func WriteCSV(w io.Writer, outcomes []Outcome) error {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{
		"group", "engine", "ways", "size_bytes", "policy", "hits", "accesses", "hit_rate",
	})
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		err := cw.Write([]string{
			o.Point.Group,
			o.Point.Engine.String(),
			strconv.Itoa(o.Point.Geometry.Ways),
			strconv.Itoa(o.Point.Geometry.TotalSize),
			o.Point.Policy.String(),
			strconv.FormatUint(o.Result.Hits, 10),
			strconv.FormatUint(o.Result.Accesses, 10),
			strconv.FormatFloat(o.Result.HitRate(), 'f', 6, 64),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
