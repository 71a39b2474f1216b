package canon_test

import (
	"testing"

	"gps-canon-service/internal/canon"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeHeader(t *testing.T) {
	Convey("Header normalization", t, func() {
		So(canon.NormalizeHeader("Total Distance"), ShouldEqual, "totaldistance")
		So(canon.NormalizeHeader("Z-3"), ShouldEqual, "z3")
		So(canon.NormalizeHeader("HSR%"), ShouldEqual, "hsr%")
		So(canon.NormalizeHeader("max_speed / kmh"), ShouldEqual, "maxspeedkmh")
		So(canon.NormalizeHeader("Дистанция"), ShouldEqual, "distanciya")
		So(canon.NormalizeHeader("Catégorie"), ShouldEqual, "categorie")
	})
}

func TestSuggest(t *testing.T) {
	reg := canon.Default()

	suggest := func(h string) string {
		if k := reg.Suggest(h); k != nil {
			return *k
		}
		return ""
	}

	Convey("Suggesting canonical keys for vendor headers", t, func() {
		Convey("Quick rules cover the common abbreviations", func() {
			So(suggest("TD"), ShouldEqual, "total_distance_m")
			So(suggest("Total Distance"), ShouldEqual, "total_distance_m")
			So(suggest("HSR%"), ShouldEqual, "hsr_ratio")
			So(suggest("hsr ratio"), ShouldEqual, "hsr_ratio")
			So(suggest("Z-3"), ShouldEqual, "distance_zone3_m")
			So(suggest("Tempo"), ShouldEqual, "distance_zone3_m")
			So(suggest("Acc"), ShouldEqual, "acc_count")
			So(suggest("Время"), ShouldEqual, "duration_s")
		})

		Convey("A lone sprint token is the zone-5 distance, not the counter", func() {
			So(suggest("Sprint"), ShouldEqual, "distance_zone5_m")
			So(suggest("Z-5 Sprint"), ShouldEqual, "distance_zone5_m")
			So(suggest("Sprints"), ShouldEqual, "sprint_count")
		})

		Convey("Substring fallback catches longer labels", func() {
			So(suggest("High Speed Running"), ShouldEqual, "hsr_distance_m")
			So(suggest("Максимальная скорость"), ShouldEqual, "max_speed_ms")
		})

		Convey("Unknown headers yield no suggestion", func() {
			So(reg.Suggest("Unknown Header"), ShouldBeNil)
			So(reg.Suggest(""), ShouldBeNil)
			So(reg.Suggest("zz"), ShouldBeNil)
		})

		Convey("Batch suggestion keeps only mappable headers", func() {
			got := reg.SuggestAll([]string{"TD", "Unknown Header", "HSR%"})
			So(got, ShouldResemble, map[string]string{
				"TD":   "total_distance_m",
				"HSR%": "hsr_ratio",
			})
		})
	})
}
