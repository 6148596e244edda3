// Package secure keeps rotation passwords out of plain process memory.
//
// Both the current and the new password live in a memguard enclave from the
// moment the command line is parsed until the process exits. They are
// decrypted only for the duration of a single database call:
//
//	buf, _ := secure.NewSecureString(password)
//	defer buf.Destroy()
//
//	plain, err := buf.Reveal()
//	if err != nil {
//	    return err
//	}
//	// use plain, then let it go out of scope
//
// Call memguard.Purge() from main on exit to wipe every enclave key.
package secure
