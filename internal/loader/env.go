package loader

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// evalContext exposes the process environment to HCL expressions as the
// `env` map, e.g. `values = { upload_url = env.UPLOAD_URL }`.
func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, e := range environ {
		name, value, ok := strings.Cut(e, "=")
		if ok && name != "" {
			vars[name] = cty.StringVal(value)
		}
	}

	env := cty.MapValEmpty(cty.String)
	if len(vars) > 0 {
		env = cty.MapVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

func processEnv() *hcl.EvalContext {
	return evalContext(os.Environ())
}
