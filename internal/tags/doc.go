// Package tags implements the JSON Response Adapter: it drives an
// exiftool.Supervisor through a single metadata-extraction command and
// projects the completion event's stdout buffer into a map of dotted tag
// names to raw values.
//
// A typical use:
//
//	sup := exiftool.NewSupervisor(exiftool.Config{HelperPath: "/usr/bin/exiftool"})
//	a := tags.NewAdapter(sup)
//	if a.Load("photo.jpg") {
//		for name, rec := range a.CurrentParsedTags() {
//			fmt.Println(name, rec.ValueRaw)
//		}
//	}
package tags
