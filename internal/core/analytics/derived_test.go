package analytics

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestComputeHealth(t *testing.T) {
	convey.Convey("Given health inputs", t, func() {
		convey.Convey("When everything is fine", func() {
			h := ComputeHealth(HealthInputs{StoreConnected: true, MemoryPercent: 40})

			convey.Convey("Then the score is 100 and healthy", func() {
				convey.So(h.Score, convey.ShouldEqual, 100)
				convey.So(h.Status, convey.ShouldEqual, HealthHealthy)
				convey.So(h.Deductions, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When memory crosses each threshold", func() {
			convey.So(ComputeHealth(HealthInputs{StoreConnected: true, MemoryPercent: 70}).Score, convey.ShouldEqual, 100)
			convey.So(ComputeHealth(HealthInputs{StoreConnected: true, MemoryPercent: 70.5}).Score, convey.ShouldEqual, 90)
			convey.So(ComputeHealth(HealthInputs{StoreConnected: true, MemoryPercent: 85}).Score, convey.ShouldEqual, 80)
			convey.So(ComputeHealth(HealthInputs{StoreConnected: true, MemoryPercent: 95}).Score, convey.ShouldEqual, 70)
		})

		convey.Convey("When recent errors cross each threshold", func() {
			convey.So(ComputeHealth(HealthInputs{StoreConnected: true, RecentErrors: 1}).Score, convey.ShouldEqual, 95)
			convey.So(ComputeHealth(HealthInputs{StoreConnected: true, RecentErrors: 6}).Score, convey.ShouldEqual, 90)
			convey.So(ComputeHealth(HealthInputs{StoreConnected: true, RecentErrors: 11}).Score, convey.ShouldEqual, 80)
		})

		convey.Convey("When every deduction is maximal", func() {
			h := ComputeHealth(HealthInputs{StoreConnected: false, MemoryPercent: 99, RecentErrors: 500})

			convey.Convey("Then the score stays in range and is critical", func() {
				convey.So(h.Score, convey.ShouldEqual, 20)
				convey.So(h.Score, convey.ShouldBeBetweenOrEqual, 0, 100)
				convey.So(h.Status, convey.ShouldEqual, HealthCritical)
				convey.So(h.Deductions, convey.ShouldHaveLength, 3)
			})
		})
	})
}

func TestClassifyHealth(t *testing.T) {
	convey.Convey("Given scores on the boundaries", t, func() {
		convey.So(ClassifyHealth(80), convey.ShouldEqual, HealthHealthy)
		convey.So(ClassifyHealth(79), convey.ShouldEqual, HealthWarning)
		convey.So(ClassifyHealth(60), convey.ShouldEqual, HealthWarning)
		convey.So(ClassifyHealth(59), convey.ShouldEqual, HealthCritical)
		convey.So(ClassifyHealth(0), convey.ShouldEqual, HealthCritical)
	})
}

func TestGrowthRate(t *testing.T) {
	convey.Convey("Given range and total counts", t, func() {
		convey.Convey("Then an empty total yields zero", func() {
			convey.So(GrowthRate(0, 0), convey.ShouldEqual, 0)
			convey.So(GrowthRate(5, 0), convey.ShouldEqual, 0)
		})

		convey.Convey("Then the rate is rounded to two decimals", func() {
			convey.So(GrowthRate(1, 3), convey.ShouldEqual, 33.33)
			convey.So(GrowthRate(2, 3), convey.ShouldEqual, 66.67)
			convey.So(GrowthRate(3, 3), convey.ShouldEqual, 100)
		})
	})
}

func TestDailyChangePercent(t *testing.T) {
	convey.Convey("Given a daily value and a window total", t, func() {
		convey.So(DailyChangePercent(10, 70, 7), convey.ShouldEqual, 0)
		convey.So(DailyChangePercent(20, 70, 7), convey.ShouldEqual, 100)
		convey.So(DailyChangePercent(5, 70, 7), convey.ShouldEqual, -50)

		convey.Convey("Then a zero denominator yields zero", func() {
			convey.So(DailyChangePercent(5, 0, 7), convey.ShouldEqual, 0)
			convey.So(DailyChangePercent(5, 10, 0), convey.ShouldEqual, 0)
		})
	})
}

func TestPercent(t *testing.T) {
	convey.Convey("Given a part and a whole", t, func() {
		convey.So(Percent(1, 3), convey.ShouldEqual, 33.33)
		convey.So(Percent(2, 3), convey.ShouldEqual, 66.67)
		convey.So(Percent(1, 2), convey.ShouldEqual, 50)

		convey.Convey("Then a zero whole yields zero", func() {
			convey.So(Percent(0, 0), convey.ShouldEqual, 0)
			convey.So(Percent(4, 0), convey.ShouldEqual, 0)
		})
	})
}

func TestCompletionHistogram(t *testing.T) {
	convey.Convey("Given completion points across every bucket", t, func() {
		points := []CompletionPoint{
			{Percent: 0, Count: 2, Views: 10},
			{Percent: 24.9, Count: 1, Views: 5},
			{Percent: 25, Count: 1, Views: 4},
			{Percent: 60, Count: 3, Views: 30},
			{Percent: 100, Count: 2, Views: 9},
			{Percent: 120, Count: 1, Views: 7},
			{Percent: -5, Count: 1, Views: 0},
		}

		buckets := CompletionHistogram(points)

		convey.Convey("Then every bucket is present in order", func() {
			convey.So(buckets, convey.ShouldHaveLength, 5)
			convey.So(buckets[0].Label, convey.ShouldEqual, "0-25")
			convey.So(buckets[4].Label, convey.ShouldEqual, CompletionOther)
		})

		convey.Convey("Then counts and average views are per bucket", func() {
			convey.So(buckets[0].Count, convey.ShouldEqual, 3)
			convey.So(buckets[0].AvgViews, convey.ShouldEqual, 5)
			convey.So(buckets[1].Count, convey.ShouldEqual, 1)
			convey.So(buckets[2].Count, convey.ShouldEqual, 3)
			convey.So(buckets[2].AvgViews, convey.ShouldEqual, 10)
			convey.So(buckets[3].Count, convey.ShouldEqual, 2)
			convey.So(buckets[3].AvgViews, convey.ShouldEqual, 4.5)
			convey.So(buckets[4].Count, convey.ShouldEqual, 2)
			convey.So(buckets[4].AvgViews, convey.ShouldEqual, 3.5)
		})
	})

	convey.Convey("Given no completion points", t, func() {
		buckets := CompletionHistogram(nil)

		convey.Convey("Then all buckets are empty with zero averages", func() {
			convey.So(buckets, convey.ShouldHaveLength, 5)
			for _, b := range buckets {
				convey.So(b.Count, convey.ShouldEqual, 0)
				convey.So(b.AvgViews, convey.ShouldEqual, 0)
			}
		})
	})
}
