package dedupe_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	dedupe "github.com/okian/prospect/internal/domain/dedupe"
	"github.com/okian/prospect/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When created with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it is empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
				So(d.Close(), ShouldBeNil)
			})
		})

		Convey("When the same key is recorded twice", func() {
			d := dedupe.NewInMemoryDeduper()
			first := d.SeenAndRecord(ctx, "a1@2024-06-01")
			second := d.SeenAndRecord(ctx, "a1@2024-06-01")

			Convey("Then only the first is new", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And after release the key is accepted again", func() {
				d.Unrecord(ctx, "a1@2024-06-01")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "a1@2024-06-01"), ShouldBeFalse)
			})
		})

		Convey("When releasing an unknown key", func() {
			d := dedupe.NewInMemoryDeduper()
			d.Unrecord(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the bound is reached", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.SeenAndRecord(ctx, "k1")
			d.SeenAndRecord(ctx, "k2")
			d.SeenAndRecord(ctx, "k3")

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
			})
		})

		Convey("When unbounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
			})
		})

		Convey("When many goroutines race on one key", func() {
			d := dedupe.NewInMemoryDeduper()
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, "hot") {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one wins", func() {
				So(fresh, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestRedisDeduper(t *testing.T) {
	Convey("Given the Redis deduper", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When no client is supplied", func() {
			_, err := dedupe.NewRedisDeduper(nil)

			Convey("Then construction fails", func() {
				So(errors.Is(err, dedupe.ErrNilClient), ShouldBeTrue)
			})
		})

		Convey("When Redis is unreachable", func() {
			rdb := goredis.NewClient(&goredis.Options{
				Addr:        "127.0.0.1:1",
				DialTimeout: 50 * time.Millisecond,
				MaxRetries:  -1,
			})
			d, err := dedupe.NewRedisDeduper(rdb,
				dedupe.WithTTL(time.Minute),
				dedupe.WithKeyPrefix("test:"),
				dedupe.WithLogger(logger.Get()),
			)
			So(err, ShouldBeNil)
			defer func() { _ = d.Close() }()

			ctx := context.Background()

			Convey("Then requests fail open", func() {
				So(d.SeenAndRecord(ctx, "a1@2024-06-01"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "a1@2024-06-01"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 0)
				So(func() { d.Unrecord(ctx, "a1@2024-06-01") }, ShouldNotPanic)
			})
		})

		Convey("When dialing an unreachable address", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_, err := dedupe.DialRedis(ctx, "127.0.0.1:1")

			Convey("Then the ping error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
