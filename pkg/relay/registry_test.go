package relay

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		r := NewRegistry()
		a := newConn(nil, 1)
		b := newConn(nil, 1)

		Convey("Register maps an id to its connection", func() {
			So(r.Register("p1", a), ShouldBeNil)
			c, ok := r.Lookup("p1")
			So(ok, ShouldBeTrue)
			So(c, ShouldEqual, a)
			So(r.Len(), ShouldEqual, 1)
		})

		Convey("The last connection to register an id wins", func() {
			r.Register("p1", a)
			So(r.Register("p1", b), ShouldEqual, a)
			c, _ := r.Lookup("p1")
			So(c, ShouldEqual, b)

			Convey("and the displaced connection cannot evict it", func() {
				So(r.Unregister("p1", a), ShouldBeFalse)
				c, ok := r.Lookup("p1")
				So(ok, ShouldBeTrue)
				So(c, ShouldEqual, b)
			})

			Convey("while the owner can", func() {
				So(r.Unregister("p1", b), ShouldBeTrue)
				_, ok := r.Lookup("p1")
				So(ok, ShouldBeFalse)
				So(r.Len(), ShouldEqual, 0)
			})
		})

		Convey("Broadcast skips the sender", func() {
			r.Register("p1", a)
			r.Register("p2", b)
			So(r.Broadcast([]byte("hello"), a), ShouldEqual, 1)
			So(len(a.send), ShouldEqual, 0)
			So(string(<-b.send), ShouldEqual, "hello")
		})

		Convey("A full buffer drops instead of blocking", func() {
			r.Register("p1", a)
			So(a.Send([]byte("first")), ShouldBeTrue)
			So(a.Send([]byte("second")), ShouldBeFalse)
			So(r.Broadcast([]byte("third"), nil), ShouldEqual, 0)
			So(string(<-a.send), ShouldEqual, "first")
		})

		Convey("A closed connection accepts nothing", func() {
			a.close()
			So(a.Send([]byte("late")), ShouldBeFalse)
		})

		Convey("Peers lists ids in order", func() {
			r.Register("zeta", a)
			r.Register("alpha", b)
			So(r.Peers(), ShouldResemble, []string{"alpha", "zeta"})
		})
	})
}
