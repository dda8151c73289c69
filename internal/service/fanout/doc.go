// Package fanout distributes render events to several displays.
//
// The Hub reads the coordinator's render channel and copies every event to
// each subscriber's bounded buffer. Publishing never blocks: when a buffer is
// full its oldest event is discarded so that slow displays always catch up on
// the newest state. Subscriber channels are closed when the source closes.
package fanout
