// Package control provides discrete-time feedback controllers.
//
// Every controller maps a measurement and a setpoint to an actuation with
// Control and is stepped once per sample:
//
//   - [P]: proportional
//   - [PD]: proportional plus backward-difference derivative
//   - [PID]: PD plus an integral over prior errors
//   - [Constant]: open loop
//
// Gains are given in continuous time together with the sampling interval;
// the derivative gain is stored as kd/ts and the integral gain as ki*ts.
//
// # Usage
//
//	pid, err := control.NewPID(2, 1.9, 500, 0.001) // kp, kd, ki, ts
//	u := pid.Control(measurement, 0)
//
// Controllers keep per-loop state and must not be shared between loops.
package control
