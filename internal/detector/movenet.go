package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/pose"
)

// MoveNetDetector implements Detector using a Python MoveNet subprocess.
type MoveNetDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMoveNetDetector creates a new MoveNet detector.
// The Python process is started lazily on first detection.
func NewMoveNetDetector(config Config) (*MoveNetDetector, error) {
	if findMoveNetScript(config.ScriptPath) == "" {
		return nil, fmt.Errorf("movenet_service.py not found")
	}

	return &MoveNetDetector{
		config: config,
	}, nil
}

// Detect analyzes a frame and returns detected poses.
func (d *MoveNetDetector) Detect(frame *gocv.Mat) ([]pose.Pose, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	// Read JSON response
	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Poses []jsonPose `json:"poses"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := make([]pose.Pose, len(response.Poses))
	for i, p := range response.Poses {
		result[i] = p.toPose()
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// Close shuts down the Python process.
func (d *MoveNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MoveNetDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findMoveNetScript(d.config.ScriptPath)
	if scriptPath == "" {
		return fmt.Errorf("movenet_service.py not found")
	}

	pythonPath := d.config.PythonPath
	if pythonPath == "" {
		// Use virtual environment Python if available
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	args := []string{
		scriptPath,
		"--max-poses", strconv.Itoa(d.config.MaxPoses),
		"--min-score", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
	}
	if d.config.FlipHorizontal {
		args = append(args, "--flip")
	}

	d.cmd = exec.Command(pythonPath, args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start movenet service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MoveNetDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MoveNetDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMoveNetScript(override string) string {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
		return ""
	}

	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/movenet_service.py",
		"../scripts/movenet_service.py",
		filepath.Join(execDir, "scripts/movenet_service.py"),
		filepath.Join(os.Getenv("HOME"), ".drishti/scripts/movenet_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".drishti/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPose represents the JSON structure from the Python service.
type jsonPose struct {
	Keypoints []jsonKeypoint `json:"keypoints"`
	Score     float64        `json:"score"`
}

type jsonKeypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

func (p jsonPose) toPose() pose.Pose {
	out := pose.Pose{
		Keypoints: make([]pose.Keypoint, len(p.Keypoints)),
		Score:     p.Score,
	}

	for i, kp := range p.Keypoints {
		name := kp.Name
		// Some model variants emit keypoints as a bare ordered array.
		if name == "" && i < len(pose.JointNames) {
			name = pose.JointNames[i]
		}
		out.Keypoints[i] = pose.Keypoint{
			Name:  name,
			X:     kp.X,
			Y:     kp.Y,
			Score: kp.Score,
		}
	}

	return out
}
