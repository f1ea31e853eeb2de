/*
Package coordinator implements the ride lifecycle: booking a ride for a
passenger with the nearest available driver and ending it again, plus the
management of drivers and passengers.

Every operation works inside a single region. Reads that decide a state
transition always go to the region's master. The writes of an operation are
independent store calls without a transaction, so a failure part way leaves
the earlier writes in place and is reported as an internal error.

Two bookings running at the same time may select the same driver. WithDriverLocks
closes that gap by claiming a driver through the lock manager before it is
booked.
*/
package coordinator
