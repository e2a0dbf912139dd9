package main // door scanner station entry point

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roudbar/studio-reservation/internal/scanner"
	"github.com/roudbar/studio-reservation/internal/service"
)

func main() {
	var (
		cameraURL  = flag.String("camera", "http://127.0.0.1:8081/stream", "MJPEG camera stream URL")
		serverURL  = flag.String("server", "http://127.0.0.1:8080", "reservation API base URL")
		scheduleID = flag.String("schedule", "", "session ID this station checks people into")
		token      = flag.String("token", os.Getenv("SCANNER_TOKEN"), "bearer token for the API")
		interval   = flag.Duration("interval", 200*time.Millisecond, "frame sampling interval")
	)
	flag.Parse()

	if *scheduleID == "" {
		log.Fatal("-schedule is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := scanner.NewCheckinClient(*serverURL, *token)
	stdin := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("Ready to scan. Hold the QR code up to the camera...")

		// Each scan gets its own source so the camera is reopened and
		// released per attempt.
		src := scanner.NewMJPEGSource(*cameraURL, nil)
		qrText, err := scanner.New(src, *interval).Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("scan failed: %v", err)
			if !promptRescan(stdin) {
				return
			}
			continue
		}

		submitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		result, err := client.Submit(submitCtx, qrText, *scheduleID)
		cancel()
		if err != nil {
			log.Printf("submit failed: %v", err)
		} else {
			printResult(result)
		}

		if !promptRescan(stdin) {
			return
		}
	}
}

func printResult(r *service.ScanResult) {
	if r.Valid {
		fmt.Printf("\n  ✓ %s\n", r.Message)
	} else {
		fmt.Printf("\n  ✗ %s (%s)\n", r.Message, r.Status)
	}
	if r.UserName != "" {
		fmt.Printf("    %s  %s\n", r.UserName, r.UserEmail)
	}
	if r.CourseName != "" {
		fmt.Printf("    %s  %s\n", r.CourseName, r.Location)
	}
	if r.CheckinTime != nil {
		fmt.Printf("    checked in at %s\n", r.CheckinTime.Local().Format("15:04:05"))
	}
	fmt.Println()
}

func promptRescan(in *bufio.Reader) bool {
	fmt.Print("Press Enter to scan again, or q to quit: ")
	line, err := in.ReadString('\n')
	if err != nil {
		return false
	}
	return line != "q\n" && line != "Q\n"
}
