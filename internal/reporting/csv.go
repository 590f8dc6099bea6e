package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders channel attribution rows as CSV string.
func RenderCSV(rows []ModelAttributionRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("model_id,channel,credit,credit_share,cost,roas,touchpoints\n")

	// Rows
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f,%.6f,%.6f,%d\n",
			row.ModelID,
			row.Channel,
			row.Credit,
			row.CreditShare,
			row.Cost,
			row.ROAS,
			row.Touchpoints,
		))
	}

	return sb.String()
}
