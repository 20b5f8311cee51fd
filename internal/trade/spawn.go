package trade

import (
	"os"
	"os/exec"
	"strconv"

	"github.com/sirupsen/logrus"

	"jafar/internal/models"
)

// startEscort launches a detached `jafar escort` process for the order.
// The child re-executes the current binary and outlives this process; its
// output goes to its own per-order log file, not to our stdio.
func (w *Workflow) startEscort(orderID, accountID int, contractID string, side models.Side) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, "escort",
		"--order-id", strconv.Itoa(orderID),
		"--account-id", strconv.Itoa(accountID),
		"--contract-id", contractID,
		"--expected-side", string(side),
	)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	w.log.WithComponent("trade").WithFields(logrus.Fields{
		"order_id": orderID,
		"pid":      cmd.Process.Pid,
	}).Info("Фоновый агент сопровождения запущен.")

	return cmd.Process.Release()
}
