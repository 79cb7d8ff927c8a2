// Package services holds the business logic between the HTTP controllers and
// the repositories.
//
// Services defined in this package:
//   - MessageService: sends messages, reads conversations and records read receipts
//   - ProfileService: the caller's profile, the directory and approval status changes
//   - ApprovalService: checks or waits for the caller's account approval
//   - ClockService: attendance events
//   - LocationService: live positions
//   - ScheduleService: lesson slots and their booking lifecycle
//   - AssignmentService: instructors under team leaders, clients with instructors
//   - DrivingRouteService: lesson routes drawn on the map
//   - MaterialService: learning materials and their review queue
package services
