package gender_test

import (
	"context"
	"testing"

	"github.com/ivasko/courtline/internal/domain/gender"
	"github.com/ivasko/courtline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLexiconInferrer(t *testing.T) {
	Convey("Given the default inferrer", t, func() {
		ctx := context.Background()
		inf := gender.New()

		infer := func(name string) gender.Result {
			res, err := inf.Infer(ctx, gender.Input{PersonID: "p1", GivenName: name})
			So(err, ShouldBeNil)
			return res
		}

		Convey("Lexicon entries override the suffix rule", func() {
			So(infer("Luka").Gender, ShouldEqual, model.GenderMale)
			So(infer("Nikola").Gender, ShouldEqual, model.GenderMale)
			So(infer("Ines").Gender, ShouldEqual, model.GenderFemale)
			So(infer("Luka").Confidence, ShouldBeGreaterThan, 0.9)
		})

		Convey("Unlisted names fall back to the -a suffix rule", func() {
			So(infer("Marina").Gender, ShouldEqual, model.GenderFemale)
			So(infer("Marin").Gender, ShouldEqual, model.GenderMale)
			So(infer("Marina").Confidence, ShouldEqual, 0.7)
		})

		Convey("Unisex names always come out unknown", func() {
			res := infer("Vanja")
			So(res.Gender, ShouldEqual, model.GenderUnknown)
			So(res.Confidence, ShouldEqual, 0)
		})

		Convey("Empty names come out unknown, not as an error", func() {
			So(infer("").Gender, ShouldEqual, model.GenderUnknown)
			So(infer("   ").Gender, ShouldEqual, model.GenderUnknown)
		})

		Convey("Compound names classify by the first token", func() {
			So(infer("Ana Marija").Gender, ShouldEqual, model.GenderFemale)
		})

		Convey("Inference is deterministic across calls", func() {
			first := infer("Petra")
			second := infer("petra")
			So(second.Gender, ShouldEqual, first.Gender)
			So(second.Confidence, ShouldEqual, first.Confidence)
		})
	})

	Convey("Given a raised confidence minimum", t, func() {
		ctx := context.Background()
		inf := gender.New(gender.WithConfidenceMin(0.8))

		Convey("Suffix-only inferences collapse to unknown", func() {
			res, err := inf.Infer(ctx, gender.Input{GivenName: "Marina"})
			So(err, ShouldBeNil)
			So(res.Gender, ShouldEqual, model.GenderUnknown)
		})

		Convey("Lexicon inferences still pass", func() {
			res, err := inf.Infer(ctx, gender.Input{GivenName: "Luka"})
			So(err, ShouldBeNil)
			So(res.Gender, ShouldEqual, model.GenderMale)
		})
	})

	Convey("Given deployment overrides", t, func() {
		ctx := context.Background()
		inf := gender.New(gender.WithOverrides(map[string]model.Gender{
			"Kim": model.GenderFemale,
		}))

		res, err := inf.Infer(ctx, gender.Input{GivenName: "kim"})
		So(err, ShouldBeNil)
		So(res.Gender, ShouldEqual, model.GenderFemale)
	})
}
