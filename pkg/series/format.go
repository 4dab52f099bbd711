package series

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatTimestamp renders unix milliseconds as MM/DD hh:mm:ss:mmm in loc.
func FormatTimestamp(ms int64, loc *time.Location) string {
	t := time.UnixMilli(ms).In(loc)
	return fmt.Sprintf("%s:%03d", FormatTick(ms, loc), t.Nanosecond()/int(time.Millisecond))
}

// FormatTick renders unix milliseconds as MM/DD hh:mm:ss in loc, the form
// used for time axis ticks.
func FormatTick(ms int64, loc *time.Location) string {
	t := time.UnixMilli(ms).In(loc)
	return fmt.Sprintf("%02d/%02d %02d:%02d:%02d", int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func tooltipLabel(pos int, r Record, ts string) string {
	if logical, ok := r.Logical(); ok {
		return fmt.Sprintf("dataIndex: %s, patchIndex: %s, index: %s, ts: %s",
			humanize.Comma(int64(pos)), humanize.Comma(r.PatchIndex), humanize.Comma(logical), ts)
	}
	return fmt.Sprintf("dataIndex: %s, patchIndex: %s, ts: %s",
		humanize.Comma(int64(pos)), humanize.Comma(r.PatchIndex), ts)
}
