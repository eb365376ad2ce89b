package processing

import (
	"log"
	"sort"
	"strconv"
	"strings"
)

const (
	Skipped = 0
	Done    = 2
	Failed  = 3
)

// ProcessingRun records the outcome of one pass over all tasks
type ProcessingRun struct {
	ID        uint64 `gorm:"primaryKey"`
	StartedAt int64  `gorm:"index"`
	Status    string `gorm:"type:varchar(1024)"` // Contains comma-separated pairs of task and status, e.g. "reindex:2,train:0"
}

func (pr *ProcessingRun) statusToMap() map[string]int {
	result := map[string]int{}
	if pr.Status == "" {
		return result
	}
	for _, v := range strings.Split(pr.Status, ",") {
		current := strings.Split(v, ":")
		if len(current) != 2 {
			log.Printf("Task status contains invalid chars, run: %d, status: %s", pr.ID, pr.Status)
			continue
		}
		result[current[0]], _ = strconv.Atoi(current[1])
	}
	return result
}

func (pr *ProcessingRun) updateWith(statusMap map[string]int) {
	result := []string{}
	for k, v := range statusMap {
		result = append(result, k+":"+strconv.Itoa(v))
	}
	sort.Strings(result)
	pr.Status = strings.Join(result, ",")
}
