package environment

import (
	"regexp"
	"strings"

	"github.com/wengchengjian/env/pkg/errdefs"
	"github.com/wengchengjian/env/pkg/pipeline"
	"github.com/wengchengjian/env/pkg/platform"
)

var unresolvedToken = regexp.MustCompile(`%[A-Za-z_]+%`)

// ResolveURL returns the artifact URL of def at version for host. A direct
// override for the host platform wins; the repository template is the
// fallback.
func (c *Catalog) ResolveURL(def *Definition, version string, host platform.Info) (string, error) {
	osToken, archToken := c.Platform.Canonical(host)

	if byVersion, ok := def.Overrides[osToken+"-"+archToken]; ok {
		if u, ok := byVersion[version]; ok && u != "" {
			return u, nil
		}
	}

	if def.Repository == "" {
		return "", errdefs.Newf(errdefs.KindConfig, "resolve url", def.Name,
			"no override for %s-%s %s and no repository template", osToken, archToken, version)
	}

	format := c.Platform.DefaultFormat(osToken)
	if f, ok := def.Formats[osToken]; ok {
		format = f
	}

	osName := osToken
	if n, ok := def.OSNames[osToken]; ok {
		osName = n
	}
	archName := archToken
	if n, ok := def.ArchNames[archToken]; ok {
		archName = n
	}

	u := strings.NewReplacer(
		"%version%", version,
		"%arch%", archName,
		"%platform%", osName,
		"%format%", format,
	).Replace(def.Repository)

	if osToken == "windows" && strings.Contains(u, "rustup-init") && !strings.HasSuffix(u, ".exe") {
		u += ".exe"
	}

	if tok := unresolvedToken.FindString(u); tok != "" {
		return "", errdefs.Newf(errdefs.KindConfig, "resolve url", def.Name, "unresolved placeholder %s in %s", tok, u)
	}

	return u, nil
}

// Request builds the pipeline request for def at version. args bind the
// definition's prompted values; missing args take their defaults.
func (c *Catalog) Request(def *Definition, version string, host platform.Info, args map[string]string) (pipeline.Request, error) {
	if !ValidVersion(version) {
		return pipeline.Request{}, errdefs.Newf(errdefs.KindConfig, "build request", def.Name, "invalid version %q", version)
	}

	u, err := c.ResolveURL(def, version, host)
	if err != nil {
		return pipeline.Request{}, err
	}

	bound := def.DefaultArgs()
	for k, v := range args {
		bound[k] = v
	}

	return pipeline.Request{
		Name:       def.Name,
		Version:    version,
		URL:        u,
		Activation: def.Activation(bound),
	}, nil
}
