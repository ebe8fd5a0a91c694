package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"github.com/pkg/errors"
	urfavecli "github.com/urfave/cli/v2"
)

// check validates a script without contacting the server and reports
// whether the filters editor can open it.
func check(deps *Deps) func(c *urfavecli.Context) error {
	return func(c *urfavecli.Context) error {
		path := c.Args().First()
		if path == "" {
			return errors.New("a script file is required")
		}
		data, err := deps.FileMgr.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "reading script")
		}

		content := string(data)
		if err := filtersset.ValidateScript(content); err != nil {
			return errors.Wrapf(err, "%s is not valid", path)
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fs, err := filtersset.Parse(name, content)
		if errors.Is(err, filtersset.ErrUnsupportedScript) {
			fmt.Fprintf(deps.Out, "%s is valid but cannot be edited with the filters editor\n", path)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Out, "%s is valid (%d filters)\n", path, len(fs.Filters))
		return nil
	}
}
