// Package controller defines the capability contracts a domain object
// implements to drive hardware through a kernel: decoders, inputs, and
// outputs. A kernel calls back into these interfaces on the main loop
// (via eventloop.Loop.Post) when new state arrives from its protocol;
// domain code calls into a kernel only through its posted send
// primitive, never synchronously.
package controller
