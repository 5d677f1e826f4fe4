package tspmip

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"regexp"

	"github.com/pkg/errors"
)

// EdgeIndex maps the unordered pair {i, j} to the column of its edge variable.
// Columns are laid out row by row over the upper triangle: (0,1), (0,2), ..., (1,2), ...
func EdgeIndex(i, j, n int) int {
	if i == j {
		return -1
	}
	if i > j {
		i, j = j, i
	}
	return i*n + j - ((i+1)*(i+2))/2
}

// EdgeEnds is the inverse of EdgeIndex.
func EdgeEnds(idx, n int) (int, int) {
	i := 0
	for i < n-2 && EdgeIndex(i+1, i+2, n) <= idx {
		i++
	}
	return i, idx - EdgeIndex(i, i+1, n) + i + 1
}

// EdgeCount is the number of edge variables of a complete graph on n nodes.
func EdgeCount(n int) int {
	return n * (n - 1) / 2
}

func ReadInstance(path string) (*Instance, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading instance %s", path)
	}
	inst := &Instance{}
	if err = json.Unmarshal(raw, inst); err != nil {
		return nil, errors.Wrapf(err, "parsing instance %s", path)
	}
	if inst.Dimension == 0 {
		inst.Dimension = len(inst.NodeCoordinates)
	}
	if inst.Dimension != len(inst.NodeCoordinates) {
		return nil, errors.Errorf("instance %s: dimension %d but %d coordinates", path, inst.Dimension, len(inst.NodeCoordinates))
	}
	return inst, nil
}

func WriteInstance(path string, inst *Instance) error {
	jsonInst, err := json.MarshalIndent(inst, "", "\t")
	if err != nil {
		return errors.Wrapf(err, "encoding instance %s", inst.Name)
	}
	jsonInst = []byte(SanitizeJsonArrayLineBreaks(string(jsonInst)))
	return errors.Wrapf(ioutil.WriteFile(path, jsonInst, 0644), "writing %s", path)
}

func SanitizeJsonArrayLineBreaks(json string) string {
	res := fmt.Sprintf("%s", json)
	var numbers = regexp.MustCompile(`\s*([-]?[0-9]+(\.[0-9]+)?),\s+([-]?[0-9]+(\.[0-9]+)?)(,)?`)
	var brackets = regexp.MustCompile(`\[(([-]?[0-9]+(\.[0-9]+)?,)+[-]?[0-9]+(\.[0-9]+)?)\s+\](,?)(\s+)`)
	for numbers.MatchString(res) {
		res = numbers.ReplaceAllString(res, "$1,$3$5")
	}
	for brackets.MatchString(res) {
		res = brackets.ReplaceAllString(res, "[$1]$5$6")
	}
	return res
}
