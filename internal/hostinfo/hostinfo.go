// Package hostinfo describes the machine a benchmark ran on.
package hostinfo

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/cpu"
)

type Info struct {
	Hostname  string
	GoVersion string
	OS        string
	Arch      string
	NumCPU    int
	Features  []string
}

func Detect() Info {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return Info{
		Hostname:  host,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		Features:  features(runtime.GOARCH),
	}
}

// features lists the SIMD extensions relevant to dense linear algebra.
func features(arch string) []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	switch arch {
	case "amd64", "386":
		add(cpu.X86.HasSSE2, "sse2")
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return out
}

// Metadata flattens the info into string pairs for export.
func (i Info) Metadata() map[string]string {
	return map[string]string{
		"host":       i.Hostname,
		"go_version": i.GoVersion,
		"os":         i.OS,
		"arch":       i.Arch,
		"num_cpu":    strconv.Itoa(i.NumCPU),
		"features":   strings.Join(i.Features, ","),
	}
}

// LogFields returns key/value pairs in the order logger methods expect.
func (i Info) LogFields() []interface{} {
	return []interface{}{
		"host", i.Hostname,
		"go", i.GoVersion,
		"os", i.OS,
		"arch", i.Arch,
		"cpus", i.NumCPU,
		"features", strings.Join(i.Features, ","),
	}
}
