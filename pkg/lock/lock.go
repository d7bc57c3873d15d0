package lock

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/rcspd/internal/rcerr"
	"github.com/cuemby/rcspd/pkg/task"
)

// Version is the only lock file schema version this package understands.
const Version = 1

// TaskLock is one task's pinned outcome from a prior solve.
type TaskLock struct {
	StartDate time.Time
	EndDate   time.Time
	Resources []task.ResourceAssignment
}

// Lock is a parsed lock file: a version tag plus one TaskLock per pinned
// task id.
type Lock struct {
	Version int
	Tasks   map[string]TaskLock
}

type document struct {
	Version int                     `yaml:"version"`
	Locks   map[string]taskDocument `yaml:"locks"`
}

type taskDocument struct {
	StartDate string   `yaml:"start_date"`
	EndDate   string   `yaml:"end_date"`
	Resources []string `yaml:"resources"`
}

// Write renders result's per-task estimated start/end/resources to path as
// a lock file. When taskIDs is non-nil, only tasks present in it are
// included; tasks without both an estimated start and end are skipped.
func Write(path string, result *task.SchedulingResult, taskIDs map[string]bool) error {
	locks := make(map[string]taskDocument, len(result.Annotations))

	for taskID, annot := range result.Annotations {
		if taskIDs != nil && !taskIDs[taskID] {
			continue
		}
		if annot.EstimatedStart == nil || annot.EstimatedEnd == nil {
			continue
		}

		resources := make([]string, 0, len(annot.ResourceAssignments))
		for _, r := range annot.ResourceAssignments {
			resources = append(resources, fmt.Sprintf("%s:%s", r.Name, strconv.FormatFloat(r.Allocation, 'g', -1, 64)))
		}

		locks[taskID] = taskDocument{
			StartDate: annot.EstimatedStart.Format("2006-01-02"),
			EndDate:   annot.EstimatedEnd.Format("2006-01-02"),
			Resources: resources,
		}
	}

	data, err := yaml.Marshal(document{Version: Version, Locks: locks})
	if err != nil {
		return rcerr.New(rcerr.InvalidLockFile, fmt.Sprintf("encode lock file: %v", err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return rcerr.New(rcerr.InvalidLockFile, fmt.Sprintf("write lock file: %v", err))
	}
	return nil
}

// Read loads and validates a lock file, rejecting anything but the current
// schema version and any task entry with an unparseable date.
func Read(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rcerr.New(rcerr.InvalidLockFile, fmt.Sprintf("read lock file: %v", err))
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, rcerr.New(rcerr.InvalidLockFile, fmt.Sprintf("parse lock file: %v", err))
	}

	if doc.Version != Version {
		return nil, rcerr.New(rcerr.InvalidLockFile,
			fmt.Sprintf("unsupported lock file version %d, expected %d", doc.Version, Version))
	}

	tasks := make(map[string]TaskLock, len(doc.Locks))
	for taskID, td := range doc.Locks {
		if td.StartDate == "" || td.EndDate == "" {
			return nil, rcerr.New(rcerr.InvalidLockFile,
				fmt.Sprintf("lock for %q missing start_date or end_date", taskID), taskID)
		}

		start, err := time.Parse("2006-01-02", td.StartDate)
		if err != nil {
			return nil, rcerr.New(rcerr.InvalidLockFile,
				fmt.Sprintf("invalid start_date in lock for %q: %v", taskID, err), taskID)
		}
		end, err := time.Parse("2006-01-02", td.EndDate)
		if err != nil {
			return nil, rcerr.New(rcerr.InvalidLockFile,
				fmt.Sprintf("invalid end_date in lock for %q: %v", taskID, err), taskID)
		}

		resources := make([]task.ResourceAssignment, 0, len(td.Resources))
		for _, raw := range td.Resources {
			name, allocStr, hasAlloc := strings.Cut(raw, ":")
			allocation := 1.0
			if hasAlloc {
				if parsed, err := strconv.ParseFloat(allocStr, 64); err == nil {
					allocation = parsed
				}
			}
			resources = append(resources, task.ResourceAssignment{Name: name, Allocation: allocation})
		}

		tasks[taskID] = TaskLock{StartDate: start, EndDate: end, Resources: resources}
	}

	return &Lock{Version: doc.Version, Tasks: tasks}, nil
}

// Apply pins every task named in l onto its recorded (start, end,
// resources) and disables auto-assignment for it — locked tasks are
// treated as fixed, already-scheduled input to the algorithm. Tasks not
// named in l are left untouched; lock entries naming a task no longer
// present in tasks are silently ignored (lock-file drift).
func Apply(tasks []*task.Task, l *Lock) {
	if l == nil {
		return
	}
	for _, t := range tasks {
		tl, ok := l.Tasks[t.ID]
		if !ok {
			continue
		}
		start, end := tl.StartDate, tl.EndDate
		t.StartOn = &start
		t.EndOn = &end
		t.Resources = tl.Resources
		t.ResourceSpec = ""
	}
}

// SortedTaskIDs returns l's task ids in sorted order, for deterministic
// iteration in logging and tests.
func (l *Lock) SortedTaskIDs() []string {
	ids := make([]string, 0, len(l.Tasks))
	for id := range l.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
