package notify

import (
	"encoding/json"
	"fmt"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/utils"
)

type Recipients struct {
	To []string `json:"to"`
	CC []string `json:"cc"`
}

// Directory maps a department to the director-level recipients of its
// notification step. A department missing from the directory is a
// configuration error surfaced as NotFound, never a silent no-op.
type Directory map[models.Department]Recipients

// ParseDirectory loads a directory from its JSON form, e.g.
// {"MECA":{"to":["dir.meca@x.edu"],"cc":["sec.meca@x.edu"]}}.
func ParseDirectory(raw []byte) (Directory, error) {
	var d Directory
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("invalid department directory: %w", err)
	}
	return d, nil
}

func (d Directory) Lookup(dep models.Department) (Recipients, error) {
	const op = "notify.Directory.Lookup"
	r, ok := d[dep]
	if !ok || len(r.To) == 0 {
		return Recipients{}, utils.E(utils.CodeNotFound, op,
			fmt.Sprintf("no recipients configured for department %q", dep), nil)
	}
	return r, nil
}
