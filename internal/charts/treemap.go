package charts

import "github.com/xela07ax/ddos-dashboard/internal/domain"

// TreemapRows разворачивает трёхуровневую агрегацию в строки.
// Отсутствующая средняя длительность (нет завершённых атак) заменяется нулём.
func TreemapRows(agg *domain.TileAgg) []domain.TreemapRow {
	rows := []domain.TreemapRow{}
	for _, t := range agg.Buckets {
		for _, c := range t.Countries.Buckets {
			for _, o := range c.ASOrganizations.Buckets {
				var avg float64
				if o.AttackDuration != nil && o.AttackDuration.Value != nil {
					avg = *o.AttackDuration.Value
				}
				rows = append(rows, domain.TreemapRow{
					AttackType:     t.Key,
					Country:        c.Key,
					ASOrganization: o.Key,
					Attacks:        o.DocCount,
					AvgDurationMs:  avg,
				})
			}
		}
	}
	return rows
}

// TreemapTree собирает иерархию из строк. Value родителя — сумма детей,
// цвет родителя — средняя длительность детей, взвешенная по числу атак.
// Порядок узлов — порядок первого появления в rows.
func TreemapTree(rows []domain.TreemapRow) []domain.TreemapNode {
	roots := []domain.TreemapNode{}
	for _, r := range rows {
		path := [3]string{r.AttackType, r.Country, r.ASOrganization}
		level := &roots
		for depth, name := range path {
			i := findNode(*level, name)
			if i < 0 {
				*level = append(*level, domain.TreemapNode{Name: name})
				i = len(*level) - 1
			}
			node := &(*level)[i]
			if depth == len(path)-1 {
				node.Value += r.Attacks
				node.AvgDurationMs = r.AvgDurationMs
			}
			level = &node.Children
		}
	}
	for i := range roots {
		rollup(&roots[i])
	}
	return roots
}

func findNode(nodes []domain.TreemapNode, name string) int {
	for i := range nodes {
		if nodes[i].Name == name {
			return i
		}
	}
	return -1
}

// rollup пересчитывает Value и AvgDurationMs внутренних узлов снизу вверх.
func rollup(n *domain.TreemapNode) {
	if len(n.Children) == 0 {
		return
	}
	var total int64
	var weighted float64
	for i := range n.Children {
		rollup(&n.Children[i])
		total += n.Children[i].Value
		weighted += n.Children[i].AvgDurationMs * float64(n.Children[i].Value)
	}
	n.Value = total
	n.AvgDurationMs = 0
	if total > 0 {
		n.AvgDurationMs = weighted / float64(total)
	}
}
