// Package disk watches the scratch volume and owns the per-job temp
// directory lifecycle.
package disk

import (
	"math"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
)

// UsagePct returns the used percentage of the volume holding path, rounded
// to one decimal. Errors degrade to 0.0 so a broken statfs never blocks the
// admission check.
func UsagePct(path string) float64 {
	usage, err := disk.Usage(path)
	if err != nil {
		log.Warnf("could not read disk usage for %s: %v", path, err)
		return 0.0
	}
	return math.Round(usage.UsedPercent*10) / 10
}

// IsPressure reports whether the volume holding path is at or above the
// threshold percentage.
func IsPressure(path string, thresholdPct float64) bool {
	pct := UsagePct(path)
	if pct >= thresholdPct {
		log.Warnf("disk pressure detected: usage %.1f%% >= threshold %.1f%%", pct, thresholdPct)
		return true
	}
	return false
}

// JobTempDir returns the scratch directory for a job.
func JobTempDir(tempDir, jobID string) string {
	return filepath.Join(tempDir, jobID)
}

// CleanupOrphanTempDirs removes job scratch directories left behind by a
// crashed run. A directory survives only if its name matches a currently
// locked job.
func CleanupOrphanTempDirs(tempDir string, lockedJobIDs []string) {
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		if err := os.MkdirAll(tempDir, 0o755); err != nil {
			log.Warnf("could not create temp dir %s: %v", tempDir, err)
		}
		return
	}

	locked := make(map[string]struct{}, len(lockedJobIDs))
	for _, id := range lockedJobIDs {
		locked[id] = struct{}{}
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		log.Warnf("could not list temp dir %s: %v", tempDir, err)
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, ok := locked[entry.Name()]; ok {
			continue
		}
		path := filepath.Join(tempDir, entry.Name())
		log.Infof("cleaning orphan temp dir %s", path)
		if err := os.RemoveAll(path); err != nil {
			log.Warnf("could not remove %s: %v", path, err)
		}
	}
}

// CleanupJobTemp deletes the scratch directory for one job.
func CleanupJobTemp(tempDir, jobID string) {
	path := JobTempDir(tempDir, jobID)
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		log.Warnf("could not remove %s: %v", path, err)
		return
	}
	log.Infof("cleaned up temp dir %s", path)
}

// ProcessRSSMB returns the worker's resident set size in MiB, 0.0 when the
// probe fails.
func ProcessRSSMB() float64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0.0
	}
	mem, err := proc.MemoryInfo()
	if err != nil || mem == nil {
		return 0.0
	}
	return math.Round(float64(mem.RSS)/1024/1024*10) / 10
}
